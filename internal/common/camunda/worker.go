package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"hr-analytics/internal/common/config"
	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/common/observability"
)

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// InputValidator rejects job variables before the handler runs.
type InputValidator interface {
	ValidateInput(variables string) error
}

// Registry opens job workers and closes them on shutdown.
type Registry struct {
	client  zbc.Client
	obs     *observability.Observability
	errors  *commonerrors.ErrorHandler
	logger  logger.Logger
	workers []worker.JobWorker
}

func NewRegistry(client zbc.Client, obs *observability.Observability, log logger.Logger) *Registry {
	return &Registry{
		client: client,
		obs:    obs,
		errors: commonerrors.NewErrorHandler(log),
		logger: log,
	}
}

// Register opens a worker for taskType unless it is disabled in cfg.
// validator may be nil.
func (r *Registry) Register(cfg *config.Config, taskType string, handler JobHandler, validator InputValidator) bool {
	if !config.IsWorkerEnabled(cfg, taskType) {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}
	wcfg := config.GetWorkerConfig(cfg, taskType)

	jw := r.client.NewJobWorker().
		JobType(taskType).
		Handler(r.instrument(taskType, handler, validator)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()
	r.workers = append(r.workers, jw)

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
		"validated":     validator != nil,
	})
	return true
}

func (r *Registry) instrument(taskType string, handler JobHandler, validator InputValidator) worker.JobHandler {
	active := metrics.WorkerJobsActive.WithLabelValues(taskType)
	return func(client worker.JobClient, job entities.Job) {
		active.Inc()
		defer active.Dec()

		ctx := context.Background()
		start := time.Now()
		status := "handled"

		if validator != nil {
			if err := validator.ValidateInput(job.Variables); err != nil {
				status = "rejected"
				metrics.WorkerJobsFailed.WithLabelValues(taskType, string(commonerrors.ErrCodeInvalidInput)).Inc()
				r.errors.HandleJobError(ctx, client, job, err)
			}
		}
		if status == "handled" {
			handler.Handle(client, job)
		}
		elapsed := time.Since(start)

		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		r.obs.RecordJobProcessed(ctx, taskType, status)
		r.obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

// Len returns the number of open workers.
func (r *Registry) Len() int { return len(r.workers) }

// Close stops every worker and waits for in-flight jobs.
func (r *Registry) Close() {
	for _, w := range r.workers {
		w.Close()
		w.AwaitClose()
	}
	r.workers = nil
}
