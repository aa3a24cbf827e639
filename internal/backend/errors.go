package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCategory is the normalized failure taxonomy for outbound backends.
type ErrorCategory string

const (
	// ErrorTimeout indicates the backend took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorUnreachable indicates a network-level failure before any response
	ErrorUnreachable ErrorCategory = "unreachable"

	// ErrorBadStatus indicates a non-success HTTP status
	ErrorBadStatus ErrorCategory = "bad_status"

	// ErrorBadData indicates a response body that could not be decoded
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorRateLimited indicates HTTP 429
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorCircuitOpen indicates the call was short-circuited locally
	ErrorCircuitOpen ErrorCategory = "circuit_open"

	// ErrorInternal indicates a local failure building the request
	ErrorInternal ErrorCategory = "internal"
)

// Error is the transport error returned by every outbound client.
type Error struct {
	Category   ErrorCategory
	Endpoint   string
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("backend %s [%s]", e.Endpoint, e.Category)
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("%s status %d", prefix, e.StatusCode)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError builds a categorized transport error.
func NewError(category ErrorCategory, endpoint, message string, underlying error) *Error {
	retryable := category == ErrorTimeout ||
		category == ErrorUnreachable ||
		category == ErrorRateLimited

	return &Error{
		Category:   category,
		Endpoint:   endpoint,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// statusError categorizes a non-success HTTP status.
func statusError(endpoint string, status int, body string) *Error {
	category := ErrorBadStatus
	if status == 429 {
		category = ErrorRateLimited
	}
	e := NewError(category, endpoint, "unexpected status", nil)
	e.StatusCode = status
	e.Retryable = e.Retryable || status >= 500
	if body != "" {
		e.Message = "unexpected status: " + body
	}
	return e
}

// transportError categorizes a failure of http.Client.Do.
func transportError(endpoint string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewError(ErrorTimeout, endpoint, "request timed out", err)
	}
	return NewError(ErrorUnreachable, endpoint, "request failed", err)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// GetCategory extracts the error category, defaulting to ErrorInternal.
func GetCategory(err error) ErrorCategory {
	var be *Error
	if errors.As(err, &be) {
		return be.Category
	}
	return ErrorInternal
}

// IsTransportError reports whether err came from an outbound backend call.
func IsTransportError(err error) bool {
	var be *Error
	return errors.As(err, &be)
}
