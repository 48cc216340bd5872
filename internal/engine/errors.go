package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a scheduler setup failure. Nothing is rendered and no
// marker is emitted when one is returned.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoSurface indicates no presentation surface was provided.
	ErrCodeNoSurface RuntimeErrorCode = "NO_SURFACE"

	// ErrCodeNoInput indicates no input source was provided.
	ErrCodeNoInput RuntimeErrorCode = "NO_INPUT"

	// ErrCodeNoTicks indicates no tick source was provided.
	ErrCodeNoTicks RuntimeErrorCode = "NO_TICKS"

	// ErrCodeNoEmitter indicates no marker emitter was provided.
	ErrCodeNoEmitter RuntimeErrorCode = "NO_EMITTER"

	// ErrCodeInvalidProtocol indicates a phase list or gate failed validation.
	ErrCodeInvalidProtocol RuntimeErrorCode = "INVALID_PROTOCOL"

	// ErrCodeReused indicates Run was called on a scheduler whose surface is
	// already closed.
	ErrCodeReused RuntimeErrorCode = "SURFACE_CLOSED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsProtocolError returns true if err is an invalid protocol error.
// Uses errors.As to handle wrapped errors.
func IsProtocolError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidProtocol
	}
	return false
}

func missing(code RuntimeErrorCode, what string) *RuntimeError {
	return &RuntimeError{Code: code, Message: what + " is required"}
}

func errReused() *RuntimeError {
	return &RuntimeError{Code: ErrCodeReused, Message: "scheduler already finished"}
}

func newProtocolError(err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeInvalidProtocol, Message: "invalid protocol", Err: err}
}
