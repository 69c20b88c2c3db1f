package computemetric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/common/database"
	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/derived"
	"hr-analytics/internal/models"
)

const (
	TaskType = "hr-compute-metric"

	cacheKeyPrefix = "hr:metric:"
)

var (
	ErrMissingMetric = errors.New("MISSING_METRIC")
	ErrInvalidWindow = errors.New("INVALID_WINDOW")
)

type Handler struct {
	config  *Config
	runtime *analytics.Runtime
	errors  *commonerrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, rt *analytics.Runtime, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		runtime: rt,
		errors:  commonerrors.NewErrorHandler(l),
		logger:  l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute computes one registered metric, serving from Redis when a fresh
// result for the same parameters exists.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	name := models.MetricName(strings.TrimSpace(input.Metric))
	if name == "" {
		return nil, ErrMissingMetric
	}
	if _, ok := derived.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %s", derived.ErrUnknownMetric, name)
	}
	if (input.WindowDays != nil && *input.WindowDays <= 0) || (input.Months != nil && *input.Months <= 0) {
		return nil, ErrInvalidWindow
	}

	session := h.runtime.NewSession(h.logger)
	env := h.runtime.MetricEnv(session)
	if input.WindowDays != nil {
		env.TimeToHireWindowDays = *input.WindowDays
	}
	if input.Months != nil {
		env.OfferAcceptanceMonths = *input.Months
	}

	key := cacheKey(name, env)
	if entry, ok := h.lookup(ctx, key); ok {
		return output(name, entry, true), nil
	}

	res, err := derived.Execute(ctx, name, env)
	if err != nil {
		return nil, err
	}
	if err := session.Err(); err != nil {
		return nil, fmt.Errorf("data access failed: %w", err)
	}

	entry := cacheEntry{
		Scalar:     res.Scalar,
		Rows:       res.Rows,
		Tabular:    res.Tabular,
		ComputedAt: h.runtime.Now().UTC().Format(time.RFC3339),
	}
	h.store(ctx, key, entry)
	return output(name, entry, false), nil
}

func (h *Handler) lookup(ctx context.Context, key string) (cacheEntry, bool) {
	var entry cacheEntry
	if h.runtime.Cache == nil || h.config.CacheTTL <= 0 {
		return entry, false
	}
	err := h.runtime.Cache.GetJSON(ctx, key, &entry)
	switch {
	case err == nil:
		metrics.MetricCacheHits.WithLabelValues("hit").Inc()
		return entry, true
	case errors.Is(err, database.ErrCacheMiss):
		metrics.MetricCacheHits.WithLabelValues("miss").Inc()
	default:
		metrics.MetricCacheHits.WithLabelValues("error").Inc()
		h.logger.Warn("metric cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return entry, false
}

func (h *Handler) store(ctx context.Context, key string, entry cacheEntry) {
	if h.runtime.Cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	if err := h.runtime.Cache.SetJSON(ctx, key, entry, h.config.CacheTTL); err != nil {
		h.logger.Warn("metric cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func cacheKey(name models.MetricName, env derived.Env) string {
	return fmt.Sprintf("%s%s:w%d:m%d", cacheKeyPrefix, name, env.TimeToHireWindowDays, env.OfferAcceptanceMonths)
}

func output(name models.MetricName, entry cacheEntry, cached bool) *Output {
	res := derived.Result{Metric: name, Scalar: entry.Scalar, Rows: entry.Rows, Tabular: entry.Tabular}
	return &Output{
		Metric:     string(name),
		Value:      res.Value(),
		RowCount:   res.RowCount(),
		ComputedAt: entry.ComputedAt,
		Cached:     cached,
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := standardize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func standardize(err error) *commonerrors.StandardError {
	switch {
	case errors.Is(err, derived.ErrUnknownMetric):
		return commonerrors.NewUnknownMetricError(strings.TrimPrefix(err.Error(), derived.ErrUnknownMetric.Error()+": "))
	case errors.Is(err, ErrMissingMetric), errors.Is(err, ErrInvalidWindow):
		return commonerrors.NewInvalidInputError(err.Error())
	default:
		return commonerrors.FromError(err)
	}
}
