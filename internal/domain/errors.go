package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("Authentication token not found. Please login again.")
	ErrUnreachable      = errors.New("Unable to connect to server. Please check your internet connection and try again.")
	ErrNoThread         = errors.New("no active thread")
)

// ValidationError carries a message meant to be shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(msg string) error { return &ValidationError{Message: msg} }

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// StatusCode returns the gateway status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// UserMessage returns the text to surface for err, falling back to fallback
// when err carries nothing meaningful.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
