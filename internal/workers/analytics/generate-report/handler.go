package generatereport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/archive"
	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/report"
)

const (
	TaskType = "hr-generate-report"
)

var (
	ErrMissingQuery   = errors.New("MISSING_QUERY")
	ErrInvalidRetries = errors.New("INVALID_MAX_RETRIES")
	ErrReportFailed   = errors.New("REPORT_GENERATION_FAILED")
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

// Execute answers one analytics question with a fresh session.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, ErrMissingQuery
	}
	if input.MaxRetries != nil && *input.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRetries, *input.MaxRetries)
	}
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	log := h.logger.With(map[string]interface{}{"requestId": requestID})

	session := h.runtime.NewSession(log)
	engine := h.runtime.NewEngine(session, log)
	ctrl, err := h.runtime.NewController(engine, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}

	outcome, err := ctrl.Run(ctx, report.Request{Question: input.Query, MaxRetries: input.MaxRetries})
	if err != nil {
		return nil, err
	}

	output := &Output{
		RequestID:         requestID,
		Report:            outcome.Report(),
		ValidationSuccess: outcome.ValidationSuccess,
		State:             string(outcome.State),
		Attempts:          len(outcome.Attempts),
		Errors:            outcome.Errors(),
		ImpossibleQuery:   outcome.ImpossibleQuery,
		Reason:            outcome.Reason,
		NotifyEmail:       input.NotifyEmail,
	}

	if h.config.ArchiveEnabled && h.runtime.Archiver != nil {
		rec := archive.NewRecord(requestID, input.Query, outcome, h.runtime.Now())
		if err := h.runtime.Archiver.Store(ctx, rec); err != nil {
			log.Warn("report archive failed", map[string]interface{}{"error": err.Error()})
		} else {
			output.Archived = true
		}
	}

	h.runtime.Observability.RecordReport(ctx, output.State, output.Attempts)
	log.Info("report generated", map[string]interface{}{
		"state":    output.State,
		"attempts": output.Attempts,
	})
	return output, nil
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
	case errors.Is(err, ErrMissingQuery), errors.Is(err, ErrInvalidRetries):
		return commonerrors.NewInvalidInputError(err.Error())
	default:
		return commonerrors.FromError(err)
	}
}
