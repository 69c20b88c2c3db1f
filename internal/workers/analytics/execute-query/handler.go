package executequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"hr-analytics/internal/analytics"
	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/query"
)

const (
	TaskType = "hr-execute-query"
)

var (
	ErrMissingExpression = errors.New("MISSING_EXPRESSION")
	ErrAmbiguousInput    = errors.New("AMBIGUOUS_INPUT")
	ErrInvalidExpression = errors.New("INVALID_EXPRESSION")
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

// Execute evaluates the expression or chart against a fresh session.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Expression == nil && input.Chart == nil {
		return nil, ErrMissingExpression
	}
	if input.Expression != nil && input.Chart != nil {
		return nil, ErrAmbiguousInput
	}

	session := h.runtime.NewSession(h.logger)
	engine := h.runtime.NewEngine(session, h.logger)

	var output *Output
	if input.Chart != nil {
		x, err := query.ParseExpression(input.Chart.XAxis)
		if err != nil {
			return nil, fmt.Errorf("%w: x_axis: %v", ErrInvalidExpression, err)
		}
		y, err := query.ParseExpression(input.Chart.YAxis)
		if err != nil {
			return nil, fmt.Errorf("%w: y_axis: %v", ErrInvalidExpression, err)
		}
		data, err := engine.ChartData(ctx, x, y)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		}
		output = &Output{ChartData: &data}
	} else {
		expr, err := query.ParseExpression(input.Expression)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		}
		res, err := engine.Execute(ctx, expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		}
		output = &Output{Value: res.Value()}
	}

	if err := session.Err(); err != nil {
		return nil, fmt.Errorf("data access failed: %w", err)
	}
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
	case errors.Is(err, ErrInvalidExpression):
		return commonerrors.NewInvalidExpressionError(err.Error())
	case errors.Is(err, ErrMissingExpression), errors.Is(err, ErrAmbiguousInput):
		return commonerrors.NewInvalidInputError(err.Error())
	default:
		return commonerrors.FromError(err)
	}
}
