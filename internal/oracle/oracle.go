// Package oracle wraps the language-model backends that draft analytics
// reports.
package oracle

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Oracle turns a system prompt and a conversation into the next assistant turn.
type Oracle interface {
	Generate(ctx context.Context, system string, messages []Message) (string, error)
}

// Error is a transport-level oracle failure. It never signals an invalid
// report; callers abort the request on it.
type Error struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("oracle %s timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("oracle %s failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Standard maps the failure to ORACLE_TIMEOUT or ORACLE_FAILED.
func (e *Error) Standard() *errors.StandardError {
	if e.Timeout {
		return errors.NewOracleTimeoutError()
	}
	return errors.NewOracleFailedError(e.Err)
}

func wrapErr(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}
	var oe *Error
	if stderrors.As(err, &oe) {
		return err
	}
	timeout := stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded)
	return &Error{Provider: provider, Timeout: timeout, Err: err}
}

// New builds the oracle selected by cfg.Provider.
func New(ctx context.Context, cfg config.OracleConfig, log logger.Logger) (Oracle, error) {
	switch cfg.Provider {
	case config.OracleGenAI, "":
		return NewGenAI(cfg, log), nil
	case config.OracleAnthropic:
		return NewAnthropic(cfg, log), nil
	case config.OracleGemini:
		return NewGemini(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported oracle provider %q", cfg.Provider)
	}
}

func timeoutOf(cfg config.OracleConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 60 * time.Second
	}
	return config.GetDuration(cfg.Timeout)
}
