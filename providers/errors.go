package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure so the HTTP layer can pick a status code
// and the caller can decide whether a retry is worth attempting.
type ErrorKind int

const (
	// ErrInternal covers everything that has no better classification,
	// including encode/decode failures inside the proxy itself.
	ErrInternal ErrorKind = iota
	// ErrForbidden is an auth mismatch. Fatal for the request.
	ErrForbidden
	// ErrBadRequest is a malformed or missing request body, or an unknown mode.
	ErrBadRequest
	// ErrUnsupportedMode is a valid mode with no backend configured for it.
	ErrUnsupportedMode
	// ErrQuotaExceeded is a backend-reported usage limit. Retryable later.
	ErrQuotaExceeded
	// ErrColdStart means the backend is still loading its model. Retryable
	// after a short delay.
	ErrColdStart
	// ErrEmptyOutput means the backend answered successfully but produced no
	// usable artifact, which usually indicates safety filtering.
	ErrEmptyOutput
	// ErrUpstream is any other non-200 answer from a backend.
	ErrUpstream
)

// Error is the typed failure every provider and the dispatcher speak in.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind onto the wire status. Quota and cold-start
// failures are 503 so callers can tell "retry later" apart from a hard 500.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case ErrForbidden:
		return http.StatusForbidden
	case ErrBadRequest, ErrUnsupportedMode:
		return http.StatusBadRequest
	case ErrQuotaExceeded, ErrColdStart:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may usefully retry the same request
// after a delay.
func (e *Error) Retryable() bool {
	return e.Kind == ErrQuotaExceeded || e.Kind == ErrColdStart
}

// NewError creates a typed error with a fixed message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a typed error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause so the original error stays reachable via
// errors.Unwrap while the wire message stays clean.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// AsError returns err as a *Error, folding anything untyped into ErrInternal.
func AsError(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return &Error{Kind: ErrInternal, Message: "internal error", cause: err}
}
