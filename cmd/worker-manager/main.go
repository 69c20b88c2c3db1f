package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/archive"
	"hr-analytics/internal/common/aws"
	"hr-analytics/internal/common/camunda"
	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/database"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/observability"
	computemetric "hr-analytics/internal/workers/analytics/compute-metric"
	executequery "hr-analytics/internal/workers/analytics/execute-query"
	generatereport "hr-analytics/internal/workers/analytics/generate-report"
	sendreportnotification "hr-analytics/internal/workers/analytics/send-report-notification"
	"hr-analytics/pkg/registry"
)

// retryWithBackoff runs operation until it succeeds or maxTries is reached.
func retryWithBackoff(ctx context.Context, operation func() error, maxTries uint, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialDelay

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := operation(); err != nil {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Uint("maxTries", maxTries),
			)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(maxTries))
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt, err)
	}
	return nil
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("backend", cfg.Analytics.Backend),
		zap.String("oracle", cfg.Oracle.Provider),
	)

	obs := observability.New("hr-analytics-worker-manager", log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	activities, err := registry.LoadRegistry(cfg.Camunda.ActivityRegistry)
	switch {
	case errors.Is(err, os.ErrNotExist):
		zapLog.Warn("activity registry not found, job input is not pre-validated",
			zap.String("path", cfg.Camunda.ActivityRegistry))
		activities = nil
	case err != nil:
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis (optional) ---
	var cache *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(ctx, func() error {
			var err error
			cache, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return backoff.Permanent(err)
			}
			return cache.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer cache.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Relational mirror (mirror backend only) ---
	var mirror *database.SQLClient
	if cfg.Analytics.Backend == config.BackendMirror {
		mirror, err = database.OpenMirror(cfg)
		if err != nil {
			zapLog.Fatal("mirror open failed", zap.Error(err))
		}
		defer mirror.Close()

		err = retryWithBackoff(ctx, func() error {
			return mirror.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Mirror database connection")
		if err != nil {
			zapLog.Fatal("mirror database failed after retries", zap.Error(err))
		}
		if err := database.Migrate(ctx, mirror.DB, mirror.Driver); err != nil {
			zapLog.Fatal("mirror migration failed", zap.Error(err))
		}
		zapLog.Info("Mirror database ready", zap.String("driver", mirror.Driver))
	}

	// --- Elasticsearch archive (optional) ---
	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return backoff.Permanent(err)
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		archiver = archive.New(esClient.Client, cfg.Archive.Index, log)
		zapLog.Info("Elasticsearch archive ready", zap.String("index", cfg.Archive.Index))
	}

	// --- Analytics runtime ---
	backend, err := analytics.NewBackend(cfg, cache, mirror, log)
	if err != nil {
		zapLog.Fatal("analytics backend failed", zap.Error(err))
	}
	oracle, err := analytics.NewOracle(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("report oracle failed", zap.Error(err))
	}
	runtime := &analytics.Runtime{
		Config:        cfg,
		Backend:       backend,
		Oracle:        oracle,
		Cache:         cache,
		Archiver:      archiver,
		Clock:         clockwork.NewRealClock(),
		Logger:        log,
		Observability: obs,
	}

	// --- Notification channels ---
	var mailer sendreportnotification.Mailer
	if cfg.Notifications.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		mailer = ses
	}
	var publisher sendreportnotification.Publisher
	if cfg.Notifications.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = sns
	}

	// --- Workers ---
	workers := camunda.NewRegistry(zeebe.Raw(), obs, log)
	handlers := []struct {
		taskType string
		handler  camunda.JobHandler
	}{
		{generatereport.TaskType, generatereport.NewHandler(generatereport.LoadConfig(cfg), runtime, log)},
		{executequery.TaskType, executequery.NewHandler(executequery.LoadConfig(cfg), runtime, log)},
		{computemetric.TaskType, computemetric.NewHandler(computemetric.LoadConfig(cfg), runtime, log)},
		{sendreportnotification.TaskType, sendreportnotification.NewHandler(
			sendreportnotification.LoadConfig(cfg), mailer, publisher, runtime.Clock, log)},
	}
	for _, h := range handlers {
		workers.Register(cfg, h.taskType, h.handler, inputValidator(activities, h.taskType, zapLog))
	}
	zapLog.Info("Workers registered", zap.Int("count", workers.Len()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// inputValidator returns nil when taskType has no registry entry or schema.
func inputValidator(activities *registry.ActivityRegistry, taskType string, log *zap.Logger) camunda.InputValidator {
	if activities == nil {
		return nil
	}
	activity, ok := activities.Find(taskType)
	if !ok {
		log.Warn("task type missing from activity registry", zap.String("taskType", taskType))
		return nil
	}
	v, err := activity.InputValidator()
	if err != nil || v == nil {
		return nil
	}
	return v
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
