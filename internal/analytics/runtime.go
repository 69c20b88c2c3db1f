// Package analytics assembles the per-request pipeline (session, engine,
// controller) from configuration and shared connections.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"hr-analytics/internal/archive"
	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/database"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/observability"
	"hr-analytics/internal/derived"
	"hr-analytics/internal/huntflow"
	"hr-analytics/internal/oracle"
	"hr-analytics/internal/query"
	"hr-analytics/internal/report"
	"hr-analytics/internal/schema"
)

// Runtime holds long-lived dependencies. Sessions are created per request so
// that each request observes one consistent snapshot.
type Runtime struct {
	Config   *config.Config
	Backend  schema.Backend
	Oracle   oracle.Oracle
	Cache    *database.RedisClient
	Archiver *archive.Archiver
	Clock    clockwork.Clock
	Logger   logger.Logger

	// Observability may be nil; recording is then skipped.
	Observability *observability.Observability
}

// NewBackend selects the remote API or the relational mirror. cache may be
// nil; mirror is required only for the mirror backend.
func NewBackend(cfg *config.Config, cache *database.RedisClient, mirror *database.SQLClient, log logger.Logger) (schema.Backend, error) {
	switch cfg.Analytics.Backend {
	case config.BackendMirror:
		if mirror == nil {
			return nil, fmt.Errorf("mirror backend selected but no mirror database is open")
		}
		return schema.NewMirrorBackend(mirror.DB), nil
	case config.BackendRemote, "":
		var opts []huntflow.Option
		if cache != nil && cfg.Huntflow.CacheTTL > 0 {
			opts = append(opts, huntflow.WithSnapshotCache(cache, config.GetDuration(cfg.Huntflow.CacheTTL)))
		}
		return schema.NewRemoteBackend(huntflow.NewClient(cfg.Huntflow, log, opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported analytics backend %q", cfg.Analytics.Backend)
	}
}

// NewOracle builds the configured oracle provider.
func NewOracle(ctx context.Context, cfg *config.Config, log logger.Logger) (oracle.Oracle, error) {
	return oracle.New(ctx, cfg.Oracle, log)
}

// Now reads the runtime clock.
func (r *Runtime) Now() time.Time {
	return r.clock().Now()
}

func (r *Runtime) clock() clockwork.Clock {
	if r.Clock == nil {
		return clockwork.NewRealClock()
	}
	return r.Clock
}

// NewSession starts a fresh memoized view over the backend.
func (r *Runtime) NewSession(log logger.Logger) *schema.Session {
	return schema.NewSession(r.Backend, config.GetDuration(r.Config.Analytics.SessionTTL), log)
}

// NewEngine binds a query engine to session.
func (r *Runtime) NewEngine(session *schema.Session, log logger.Logger) *query.Engine {
	return query.NewEngine(session, r.Config.Analytics.ChartTopN, log)
}

// NewController binds a report controller to engine. It fails when no oracle
// is configured.
func (r *Runtime) NewController(engine *query.Engine, log logger.Logger) (*report.Controller, error) {
	if r.Oracle == nil {
		return nil, fmt.Errorf("no report oracle configured")
	}
	return report.NewController(r.Oracle, engine, r.Config.Analytics.GetMaxRetries(), log), nil
}

// MetricEnv prepares the derived metric environment for session.
func (r *Runtime) MetricEnv(session *schema.Session) derived.Env {
	return derived.NewEnv(session, r.Config.Analytics, r.clock())
}
