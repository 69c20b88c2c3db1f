package sendreportnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"hr-analytics/internal/common/aws"
	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/models"
)

const (
	TaskType = "hr-send-report-notification"
)

var (
	ErrMissingReport = errors.New("MISSING_REPORT")
)

// Mailer sends rendered e-mail.
type Mailer interface {
	Send(ctx context.Context, msg aws.Email) (string, error)
}

// Publisher fans a report summary out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, subject, message string, attrs map[string]string) (string, error)
}

type Handler struct {
	config    *Config
	mailer    Mailer
	publisher Publisher
	clock     clockwork.Clock
	errors    *commonerrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler creates the handler. mailer and publisher may be nil when the
// matching channel is disabled.
func NewHandler(config *Config, mailer Mailer, publisher Publisher, clock clockwork.Clock, log logger.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		mailer:    mailer,
		publisher: publisher,
		clock:     clock,
		errors:    commonerrors.NewErrorHandler(l),
		logger:    l,
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

// Execute delivers the report summary on every enabled channel. A delivery
// failure fails the whole job so Zeebe can retry it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Report == nil {
		return nil, ErrMissingReport
	}

	tmpl := render(input)
	sentAt := h.clock.Now().UTC().Format(time.RFC3339)
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Deliveries:     []models.Notification{},
		SentAt:         sentAt,
	}

	if h.config.EmailEnabled && h.mailer != nil && input.NotifyEmail != "" {
		id, err := h.mailer.Send(ctx, aws.Email{
			To:      []string{input.NotifyEmail},
			Subject: tmpl.Subject,
			Text:    tmpl.Body,
			HTML:    tmpl.HTMLBody,
		})
		if err != nil {
			return nil, commonerrors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Deliveries = append(output.Deliveries, h.delivery(input, ChannelEmail, input.NotifyEmail, id, sentAt))
	}

	if h.config.SNSEnabled && h.publisher != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"requestId":         input.RequestID,
			"state":             input.State,
			"validationSuccess": input.ValidationSuccess,
			"subject":           tmpl.Subject,
			"summary":           tmpl.Body,
		})
		if err != nil {
			return nil, commonerrors.NewNotificationSendFailedError(ChannelSNS, err)
		}
		id, err := h.publisher.Publish(ctx, tmpl.Subject, string(payload), map[string]string{
			"state":             input.State,
			"validationSuccess": strconv.FormatBool(input.ValidationSuccess),
		})
		if err != nil {
			return nil, commonerrors.NewNotificationSendFailedError(ChannelSNS, err)
		}
		output.Deliveries = append(output.Deliveries, h.delivery(input, ChannelSNS, "", id, sentAt))
	}

	if len(output.Deliveries) > 0 {
		output.Status = StatusSent
	}
	h.logger.Info("report notification processed", map[string]interface{}{
		"requestId":  input.RequestID,
		"status":     output.Status,
		"deliveries": len(output.Deliveries),
	})
	return output, nil
}

func (h *Handler) delivery(input *Input, channel, recipient, messageID, sentAt string) models.Notification {
	return models.Notification{
		ID:        uuid.New().String(),
		RequestID: input.RequestID,
		Recipient: recipient,
		Channel:   channel,
		Status:    StatusSent,
		MessageID: messageID,
		SentAt:    sentAt,
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
	stdErr := commonerrors.FromError(err)
	if errors.Is(err, ErrMissingReport) {
		stdErr = commonerrors.NewInvalidInputError(err.Error())
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}
