package query

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by statements.
var (
	// ErrRemoteQueryFailed is returned when the Executor reports a non-success outcome.
	ErrRemoteQueryFailed = errors.New("remote query failed")

	// ErrMalformedStatement is returned when a statement cannot be assembled or rewritten.
	ErrMalformedStatement = errors.New("malformed statement")

	// ErrInvalidArgument is returned when a builder receives input outside its contract.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStatementConsumed is returned when a statement is executed or modified after execution.
	ErrStatementConsumed = errors.New("statement already executed")
)

// RemoteError carries the failure reported by an Executor.
type RemoteError struct {
	// StatusCode is the transport status, when one exists.
	StatusCode int
	// Message is the remote-provided message, or a generic one.
	Message string
	// Cause is the underlying transport or driver error, if any.
	Cause error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrRemoteQueryFailed.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote query failed (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("remote query failed: %s", msg)
}

// Unwrap returns the underlying error.
func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// Is matches ErrRemoteQueryFailed.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteQueryFailed
}

// StatementError wraps a failure with the statement it belongs to.
type StatementError struct {
	Kind  Kind
	SQL   string
	Cause error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("%s statement: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying error.
func (e *StatementError) Unwrap() error {
	return e.Cause
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedStatement, fmt.Sprintf(format, args...))
}
