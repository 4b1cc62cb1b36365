// Package domainerrors provides coded errors for domain logic.
//
// Services return these so transports and clients can branch on cause without
// string matching. Infrastructure layers return pkg/platform/sentinel errors
// instead; services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for programmatic handling.
type Code string

const (
	// CodeValidation marks malformed or out-of-range caller input. The caller
	// can recover by resubmitting corrected input.
	CodeValidation Code = "validation"
	// CodeBadRequest marks requests that cannot be parsed or are structurally wrong.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a well-formed request carrying an invalid value.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks duplicate creation or a state that forbids the
	// requested transition. The caller must re-read current state.
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks a caller acting on a record it does not own.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller without rights for the operation.
	CodeForbidden Code = "forbidden"
	// CodeInsufficientFunds marks a balance too low to cover a transfer.
	// No partial transfer occurs on this path.
	CodeInsufficientFunds Code = "insufficient_funds"
	// CodeWindowClosed marks operations attempted outside their temporal
	// window. Not retryable until the clock advances.
	CodeWindowClosed Code = "window_closed"
	// CodeInvariantViolation marks a domain invariant breach detected before mutation.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected failures: arithmetic overflow, storage
	// faults, failed transfers. The operation aborted with no partial commit.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It optionally wraps a cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two coded errors by code and message, so tests can
// compare against a freshly constructed expectation.
func (e *Error) Is(target error) bool {
	var te *Error
	if !errors.As(target, &te) {
		return false
	}
	return e.code == te.code && e.message == te.message
}

// Code returns the classification of this error.
func (e *Error) Code() Code { return e.code }

// New constructs a coded error with no cause.
func New(code Code, message string) error {
	return &Error{code: code, message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
// Returns nil if err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none. Returns the zero Code for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
