package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"hr-analytics/internal/common/config"
	httpclient "hr-analytics/internal/common/http"
	"hr-analytics/internal/common/logger"
)

const providerGenAI = "genai"

// GenAI calls the internal generation gateway at {base_url}/api/ai/generate.
type GenAI struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	maxRetries  int
	timeout     time.Duration
	client      *httpclient.Client
	logger      logger.Logger
}

// NewGenAI creates a gateway oracle. The HTTP client carries no timeout of its
// own; each call is bounded by its context.
func NewGenAI(cfg config.OracleConfig, log logger.Logger) *GenAI {
	return &GenAI{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		timeout:     timeoutOf(cfg),
		client:      httpclient.NewClient(0),
		logger:      log.With(map[string]interface{}{"oracle": providerGenAI}),
	}
}

type generateRequest struct {
	Prompt      string    `json:"prompt"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *GenAI) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Prompt:      lastUserTurn(messages),
		System:      system,
		Messages:    messages,
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", wrapErr(ctx, providerGenAI, err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond

	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		if attempt > 1 {
			g.logger.Warn("Oracle call failed, retrying", map[string]interface{}{"attempt": attempt})
		}
		return g.call(ctx, body)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(g.maxRetries+1)))
	if err != nil {
		return "", wrapErr(ctx, providerGenAI, err)
	}
	return text, nil
}

func (g *GenAI) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/ai/generate", bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return out.Text, nil
}

func lastUserTurn(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
