package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type domainErr struct{ code ErrorCode }

func (d *domainErr) Error() string { return string(d.code) }

func (d *domainErr) Standard() *StandardError {
	return newError(d.code, "domain", "", true)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"standard error", NewUnknownMetricError("x"), ErrCodeUnknownMetric},
		{"wrapped standard error", fmt.Errorf("outer: %w", NewInvalidInputError("bad")), ErrCodeInvalidInput},
		{"standardizer", fmt.Errorf("wrap: %w", &domainErr{code: ErrCodeRateLimitExceeded}), ErrCodeRateLimitExceeded},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrCodeOracleTimeout},
		{"plain", fmt.Errorf("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      string
		retries   int
		retryable bool
	}{
		{"retryable storage", NewMirrorQueryFailedError(fmt.Errorf("locked")), "MIRROR_QUERY_FAILED", 3, true},
		{"rate limit", NewRateLimitExceededError("429"), "RATE_LIMIT_EXCEEDED", 2, true},
		{"timeout", NewOracleTimeoutError(), "ORACLE_TIMEOUT", 1, true},
		{"fatal", NewValidationFailedError("missing title"), "VALIDATION_FAILED", 0, false},
		{"unmapped code", newError(ErrCodeInternal, "x", "", true), "INTERNAL_ERROR", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.code, bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)
			assert.Equal(t, tt.retryable, bpmn.Retryable)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.code, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeAuth:               "REMOTE",
		ErrCodeRemote:             "REMOTE",
		ErrCodeOracleFailed:       "AI",
		ErrCodeArchiveFailed:      "STORAGE",
		ErrCodeNotificationFailed: "NOTIFICATION",
		ErrCodeUnknownMetric:      "VALIDATION",
		ErrCodeInvalidExpression:  "VALIDATION",
		ErrCodeInternal:           "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), code)
	}
}

func TestNotificationErrorCarriesChannel(t *testing.T) {
	err := NewNotificationSendFailedError("sns", fmt.Errorf("throttled"))
	assert.True(t, err.Retryable)
	assert.Equal(t, "sns", err.Metadata["channel"])
	assert.Equal(t, "throttled", err.Details)
	assert.True(t, IsRetryableErrorCode(err.Code))
}
