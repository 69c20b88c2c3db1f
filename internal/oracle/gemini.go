package oracle

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/logger"
)

const providerGemini = "gemini"

// Gemini drafts reports with the Gemini API.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
	temp      float32
	timeout   time.Duration
	logger    logger.Logger
}

// NewGemini creates a Gemini oracle.
func NewGemini(ctx context.Context, cfg config.OracleConfig, log logger.Logger) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	maxTokens := int32(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Gemini{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		temp:      float32(cfg.Temperature),
		timeout:   timeoutOf(cfg),
		logger:    log.With(map[string]interface{}{"oracle": providerGemini}),
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := g.temp
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", wrapErr(ctx, providerGemini, err)
	}
	if resp == nil {
		return "", wrapErr(ctx, providerGemini, fmt.Errorf("no response generated"))
	}
	text := resp.Text()
	if text == "" {
		return "", wrapErr(ctx, providerGemini, fmt.Errorf("no text content in response"))
	}
	return text, nil
}
