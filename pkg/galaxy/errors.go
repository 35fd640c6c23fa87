package galaxy

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured indicates the client has no base URL or API key.
var ErrNotConfigured = errors.New("galaxy: base URL and API key required")

// HTTPError represents a non-2xx HTTP response from the Galaxy API.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsRetryable returns true if the HTTP error is retryable: 5xx, or 429 after
// a delay.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Error wraps a Galaxy API error with operation context.
type Error struct {
	// Op is the operation that failed.
	Op string

	// Message is the error message.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given operation and message.
func NewError(op, message string) *Error {
	return &Error{Op: op, Message: message}
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) *Error {
	return &Error{Op: op, Err: err, Message: err.Error()}
}

// IsRetryable returns true if the error is likely transient and the request
// should be retried.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	return false
}

// IsNotFound returns true if the error is an HTTP 404.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound
	}
	return false
}
