package core

import (
	"errors"
	"fmt"
)

// ErrUnauthorized covers bad, missing, stale or mismatched request signatures.
// Surfaced synchronously as HTTP 401 before any work is scheduled.
var ErrUnauthorized = errors.New("unauthorized")

// ErrorNotifier forwards conditions the requester will never see - lost
// commands, task panics - to an operator alert channel.
type ErrorNotifier interface {
	NotifyError(context string, err error)
}

// ErrForbidden covers authenticated requesters that are not on the allow-list.
// Surfaced synchronously as HTTP 403 before any work is scheduled.
var ErrForbidden = errors.New("forbidden")

// ValidationError indicates a malformed identifier or insufficient arguments.
// It only occurs inside a deferred task and is delivered as a Failure message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// OperationError indicates the warehouse backend rejected or failed an
// operation. It only occurs inside a deferred task.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func NewOperationError(op string, err error) *OperationError {
	return &OperationError{Op: op, Err: err}
}

// IsOperationError checks if an error is an operation error
func IsOperationError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
