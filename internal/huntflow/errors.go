package huntflow

import (
	"fmt"
	"time"

	commonerrors "hr-analytics/internal/common/errors"
)

// AuthError means the platform rejected the token and a refresh did not help.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("huntflow auth failed: token refresh: %v", e.Err)
	}
	return fmt.Sprintf("huntflow auth failed: status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Standard() *commonerrors.StandardError {
	return commonerrors.NewAuthError(e.Error())
}

// RateLimitExceeded means every allowed attempt was answered with 429.
type RateLimitExceeded struct {
	Attempts   int
	RetryAfter time.Duration
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("huntflow rate limit exceeded after %d attempts (retry after %s)", e.Attempts, e.RetryAfter)
}

func (e *RateLimitExceeded) Standard() *commonerrors.StandardError {
	stdErr := commonerrors.NewRateLimitExceededError(e.Error())
	stdErr.Metadata = map[string]interface{}{
		"attempts":     e.Attempts,
		"retryAfterMs": e.RetryAfter.Milliseconds(),
	}
	return stdErr
}

// RemoteError is any other non-2xx response. It is never retried.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("huntflow request failed: status %d: %s", e.Status, e.Body)
}

func (e *RemoteError) Standard() *commonerrors.StandardError {
	return commonerrors.NewRemoteError(e.Status, e.Body)
}
