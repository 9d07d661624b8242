package toyapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend calls.
var (
	ErrTransport = errors.New("toyapi: request failed")
	ErrStatus    = errors.New("toyapi: unexpected status")
	ErrDecode    = errors.New("toyapi: malformed response")
)

// TransportError wraps a network-level failure (refused, reset, timeout,
// cancelled context).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// StatusError reports a non-2xx response. The response body is not inspected.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: server returned status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsStatus reports whether err is a non-2xx response.
func IsStatus(err error) bool {
	return errors.Is(err, ErrStatus)
}

// IsDecode reports whether err is a malformed JSON response.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// StatusCode extracts the HTTP status from a StatusError, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
