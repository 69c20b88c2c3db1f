package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hr-analytics/internal/common/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLClient wraps a relational mirror connection.
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// NewPostgres opens the PostgreSQL mirror.
func NewPostgres(cfg config.PostgresConfig) (*SQLClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLClient{DB: db, Driver: config.MirrorDriverPostgres}, nil
}

// NewSQLite opens the SQLite mirror file.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}
	// A single connection keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	return &SQLClient{DB: db, Driver: config.MirrorDriverSQLite}, nil
}

// OpenMirror opens the mirror selected by analytics.mirror_driver.
func OpenMirror(cfg *config.Config) (*SQLClient, error) {
	switch cfg.Analytics.MirrorDriver {
	case config.MirrorDriverPostgres:
		return NewPostgres(cfg.Database.Postgres)
	case config.MirrorDriverSQLite:
		return NewSQLite(cfg.Database.SQLite)
	default:
		return nil, fmt.Errorf("unsupported mirror driver %q", cfg.Analytics.MirrorDriver)
	}
}

func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *SQLClient) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

func (c *SQLClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}
