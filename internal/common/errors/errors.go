// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Remote platform
	ErrCodeAuth              ErrorCode = "AUTH_ERROR"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeRemote            ErrorCode = "REMOTE_ERROR"

	// Report validation
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	ErrCodeOutOfDomainQuery    ErrorCode = "OUT_OF_DOMAIN_QUERY"
	ErrCodeInvalidExpression   ErrorCode = "INVALID_EXPRESSION"

	// Oracle
	ErrCodeOracleFailed  ErrorCode = "ORACLE_FAILED"
	ErrCodeOracleTimeout ErrorCode = "ORACLE_TIMEOUT"

	// Metrics and storage
	ErrCodeUnknownMetric      ErrorCode = "UNKNOWN_METRIC"
	ErrCodeMirrorQueryFailed  ErrorCode = "MIRROR_QUERY_FAILED"
	ErrCodeArchiveFailed      ErrorCode = "ARCHIVE_FAILED"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError is fatal for the request: the token could not be refreshed.
func NewAuthError(details string) *StandardError {
	return newError(ErrCodeAuth, "Recruiting platform rejected credentials", details, false)
}

// NewRateLimitExceededError reports an exhausted 429 retry budget.
func NewRateLimitExceededError(details string) *StandardError {
	return newError(ErrCodeRateLimitExceeded, "Recruiting platform rate limit exceeded", details, true)
}

// NewRemoteError wraps a non-retryable non-2xx platform response.
func NewRemoteError(status int, body string) *StandardError {
	e := newError(ErrCodeRemote, "Recruiting platform request failed", body, false)
	e.Metadata = map[string]interface{}{"status": status}
	return e
}

// NewInvalidInputError reports job variables that cannot be processed.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

// NewValidationFailedError reports a report that never satisfied the contract.
func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Report failed validation", details, false)
}

// NewInvalidExpressionError reports a query expression rejected by the engine.
func NewInvalidExpressionError(details string) *StandardError {
	return newError(ErrCodeInvalidExpression, "Query expression is invalid", details, false)
}

// NewOracleFailedError creates a retryable oracle error.
func NewOracleFailedError(err error) *StandardError {
	return newError(ErrCodeOracleFailed, "Report oracle call failed", err.Error(), true)
}

// NewOracleTimeoutError creates a retryable oracle timeout error.
func NewOracleTimeoutError() *StandardError {
	return newError(ErrCodeOracleTimeout, "Report oracle timed out", "", true)
}

// NewUnknownMetricError creates a non-retryable registry lookup error.
func NewUnknownMetricError(name string) *StandardError {
	return newError(ErrCodeUnknownMetric, "Unknown derived metric", fmt.Sprintf("metric: %s", name), false)
}

// NewMirrorQueryFailedError creates a retryable mirror database error.
func NewMirrorQueryFailedError(err error) *StandardError {
	return newError(ErrCodeMirrorQueryFailed, "Local mirror query failed", err.Error(), true)
}

// NewArchiveFailedError creates a retryable archive error.
func NewArchiveFailedError(err error) *StandardError {
	return newError(ErrCodeArchiveFailed, "Report archive write failed", err.Error(), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeNotificationFailed, "Failed to send report notification", err.Error(), true)
	e.Metadata = map[string]interface{}{"channel": channel}
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAuth:               "AUTH_ERROR",
	ErrCodeRateLimitExceeded:  "RATE_LIMIT_EXCEEDED",
	ErrCodeRemote:             "REMOTE_ERROR",
	ErrCodeValidationFailed:   "VALIDATION_FAILED",
	ErrCodeOutOfDomainQuery:   "OUT_OF_DOMAIN_QUERY",
	ErrCodeInvalidExpression:  "INVALID_EXPRESSION",
	ErrCodeOracleFailed:       "ORACLE_FAILED",
	ErrCodeOracleTimeout:      "ORACLE_TIMEOUT",
	ErrCodeUnknownMetric:      "UNKNOWN_METRIC",
	ErrCodeMirrorQueryFailed:  "MIRROR_QUERY_FAILED",
	ErrCodeArchiveFailed:      "ARCHIVE_FAILED",
	ErrCodeNotificationFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidInput:       "INVALID_INPUT",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMirrorQueryFailed,
		ErrCodeArchiveFailed,
		ErrCodeNotificationFailed,
		ErrCodeOracleFailed:
		return 3

	case ErrCodeRateLimitExceeded:
		return 2

	case ErrCodeOracleTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "RATE_LIMIT") || strings.Contains(codeStr, "REMOTE"):
		return "REMOTE"
	case strings.Contains(codeStr, "ORACLE"):
		return "AI"
	case strings.Contains(codeStr, "MIRROR") || strings.Contains(codeStr, "ARCHIVE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "UNKNOWN"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// Standardizer is implemented by domain errors that know their StandardError form.
type Standardizer interface {
	Standard() *StandardError
}

// FromError normalizes any error into a StandardError. Wrapped domain errors
// keep their code; everything else becomes INTERNAL_ERROR.
func FromError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	var s Standardizer
	if stderrors.As(err, &s) {
		return s.Standard()
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewOracleTimeoutError()
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}
