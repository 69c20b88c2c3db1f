package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-analytics/internal/common/config"
)

func TestMigrate_SQLiteInMemory(t *testing.T) {
	client, err := NewSQLite(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, client.DB, config.MirrorDriverSQLite))

	_, err = client.Exec(ctx, `INSERT INTO status_mapping (id, name, type, order_number) VALUES (1, 'Offer accepted', 'hired', 9)`)
	require.NoError(t, err)

	var typ string
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT type FROM status_mapping WHERE id = 1`).Scan(&typ))
	assert.Equal(t, "hired", typ)
}

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	var out map[string]int
	assert.ErrorIs(t, client.GetJSON(ctx, "missing", &out), ErrCacheMiss)

	require.NoError(t, client.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	require.NoError(t, client.GetJSON(ctx, "k", &out))
	assert.Equal(t, 1, out["a"])

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, client.GetJSON(ctx, "k", &out), ErrCacheMiss)
}
