package cli

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/archive"
	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/database"
	"hr-analytics/internal/common/logger"
)

// OpenRuntime connects to the configured stores. Redis is optional: an
// unreachable cache only costs the snapshot and metric caching.
func OpenRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, needOracle bool) (*analytics.Runtime, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*analytics.Runtime, func(), error) {
		cleanup()
		return nil, nil, err
	}

	var cache *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		c, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = c.Ping(ctx)
		}
		if err != nil {
			log.Warn("redis unavailable, caching disabled", map[string]interface{}{"error": err.Error()})
		} else {
			cache = c
			closers = append(closers, func() { _ = c.Close() })
		}
	}

	var mirror *database.SQLClient
	if cfg.Analytics.Backend == config.BackendMirror {
		m, err := database.OpenMirror(cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = m.Close() })
		if err := database.Migrate(ctx, m.DB, m.Driver); err != nil {
			return fail(err)
		}
		mirror = m
	}

	backend, err := analytics.NewBackend(cfg, cache, mirror, log)
	if err != nil {
		return fail(err)
	}

	rt := &analytics.Runtime{
		Config:  cfg,
		Backend: backend,
		Cache:   cache,
		Clock:   clockwork.NewRealClock(),
		Logger:  log,
	}

	if cfg.Archive.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return fail(err)
		}
		rt.Archiver = archive.New(es.Client, cfg.Archive.Index, log)
	}

	if needOracle {
		o, err := analytics.NewOracle(ctx, cfg, log)
		if err != nil {
			return fail(fmt.Errorf("report oracle: %w", err))
		}
		rt.Oracle = o
	}
	return rt, cleanup, nil
}
