package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docverify/internal/preflight"
)

var (
	// ErrValidation marks files rejected before upload.
	ErrValidation = errors.New("validation error")
	// ErrTransport marks network failures and non-2xx responses.
	ErrTransport = errors.New("transport error")
)

// ValidationError reports a file rejected by pre-flight checks.
type ValidationError struct {
	Violation *preflight.Violation
}

func (e *ValidationError) Error() string {
	if e == nil || e.Violation == nil {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, e.Violation.Error())
}

// Reason returns the violation category.
func (e *ValidationError) Reason() preflight.Reason {
	if e == nil || e.Violation == nil {
		return ""
	}
	return e.Violation.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error {
	if e == nil || e.Violation == nil {
		return nil
	}
	return e.Violation
}

// TransportError reports a failed request. StatusCode is zero when no
// response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// NotFound reports whether the service answered 404.
func (e *TransportError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is a TransportError carrying HTTP 404.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.NotFound()
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
