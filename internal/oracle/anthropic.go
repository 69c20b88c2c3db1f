package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/logger"
)

const providerAnthropic = "anthropic"

// Anthropic drafts reports with the Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	logger    logger.Logger
}

// NewAnthropic creates an Anthropic oracle. An empty base URL uses the public API.
func NewAnthropic(cfg config.OracleConfig, log logger.Logger) *Anthropic {
	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaude3_5Haiku20241022
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeoutOf(cfg),
		logger:    log.With(map[string]interface{}{"oracle": providerAnthropic}),
	}
}

func (a *Anthropic) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(messages)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		a.logger.Error("Anthropic call failed", map[string]interface{}{
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		})
		return "", wrapErr(ctx, providerAnthropic, err)
	}
	a.logger.Debug("Anthropic call completed", map[string]interface{}{
		"duration":   time.Since(start).String(),
		"stopReason": string(msg.StopReason),
	})

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", wrapErr(ctx, providerAnthropic, fmt.Errorf("no text content in response"))
	}
	return strings.Join(parts, ""), nil
}
