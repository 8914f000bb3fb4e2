// Package apperr classifies the failures a dashboard action can end in.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an action needs a session and there is none.
	ErrNotAuthenticated = errors.New("you must be logged in")

	// ErrAdminRequired is returned when a non-admin session attempts a mutation.
	ErrAdminRequired = errors.New("admin privileges required")

	// ErrNotFound is returned when an entity is missing from the local snapshot.
	ErrNotFound = errors.New("record not found")
)

// ValidationError is a local pre-flight failure. It never reaches the transport.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RemoteError is a non-2xx response from the backend.
type RemoteError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return e.Message
}

// TransportError is a request that never got a response.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// LocalFallbackError reports a remote failure whose effect was kept in the
// durable cache instead.
type LocalFallbackError struct {
	Err error
}

// Error implements the error interface.
func (e *LocalFallbackError) Error() string {
	return "saved locally, server unavailable: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *LocalFallbackError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransport reports whether err is a failure to reach the backend.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// StatusCode returns the HTTP status of a RemoteError, or 0.
func StatusCode(err error) int {
	var r *RemoteError
	if errors.As(err, &r) {
		return r.StatusCode
	}
	return 0
}

// Message returns the text to show the user for err. Validation and server
// messages are surfaced verbatim; anything without a message of its own
// falls back to the component-specific fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var local *LocalFallbackError
	if errors.As(err, &local) {
		return "Saved locally, server unavailable: " + Message(local.Err, fallback)
	}

	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}

	var r *RemoteError
	if errors.As(err, &r) {
		if r.Message != "" {
			return r.Message
		}
		return fallback
	}

	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrAdminRequired) || errors.Is(err, ErrNotFound) {
		return err.Error()
	}

	return fallback
}
