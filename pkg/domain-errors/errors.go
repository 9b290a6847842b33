// Package derrors provides coded domain errors shared across modules.
//
// Services and models return these so transport layers can map them to
// HTTP statuses without string matching, and so callers can branch on
// the failure class (recoverable transition errors vs fatal invariant
// violations) per the error taxonomy in the system design.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed input caught at a trust boundary
	// (parsing, enum validation). Fatal for the request.
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks a structurally valid but unusable request.
	CodeBadRequest Code = "bad_request"

	// CodeInvariantViolation marks a cross-field invariant failure at
	// construction time (budgetSpent > budgetAllocated, start >= end).
	// Never coerced or clamped; the construction is rejected.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInvalidTransition marks a lifecycle transition not present in
	// the transition table. Recoverable: callers may retry with a
	// different target.
	CodeInvalidTransition Code = "invalid_transition"

	// CodePreconditionNotMet marks a transition that exists in the table
	// but whose guard failed (e.g. too few volunteers to activate).
	CodePreconditionNotMet Code = "precondition_not_met"

	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a concurrency or uniqueness conflict
	// (version mismatch, duplicate snippet hash).
	CodeConflict Code = "conflict"

	// CodeUnauthorized marks a failed authentication check.
	CodeUnauthorized Code = "unauthorized"

	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and an operator-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the code carried by err, or CodeInternal when err is
// not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the operator-facing message, or an empty string.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
