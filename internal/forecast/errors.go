package forecast

import (
	"errors"
	"fmt"
)

// ErrorCode classifies engine failures. Every failure mode resolves to one
// of these; callers decide whether to degrade or surface the error.
type ErrorCode string

const (
	// ErrInsufficientData means too few observations to model. Recoverable:
	// callers may fall back to a simple average or omit the item.
	ErrInsufficientData ErrorCode = "INSUFFICIENT_DATA"
	// ErrDegenerateSeries means zero variance. Handled internally with a
	// flat forecast; exposed for callers that probe series directly.
	ErrDegenerateSeries ErrorCode = "DEGENERATE_SERIES"
	// ErrNoCandidates means the suggestion candidate set was empty.
	ErrNoCandidates ErrorCode = "NO_CANDIDATES"
	// ErrUpstreamUnavailable means a collaborator fetch failed. The affected
	// item is dropped from aggregate results rather than aborting the request.
	ErrUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
)

// Error is a structured engine error.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error wrapping cause.
func WrapError(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or "" when err is not an engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
