// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-async.

package api

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeWouldBlock
	ErrCodeClosed
	ErrCodeInvariantViolation
	ErrCodeCanceled
	ErrCodeInvalidArgument
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeWouldBlock:
		return "would block"
	case ErrCodeClosed:
		return "closed"
	case ErrCodeInvariantViolation:
		return "invariant violation"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeInvalidArgument:
		return "invalid argument"
	default:
		return "internal"
	}
}

// Common errors used across the library. Errors carrying extra context are
// created with NewError and still match these through errors.Is.
var (
	// ErrWouldBlock is returned by non-suspending try variants when the
	// resource is not immediately available.
	ErrWouldBlock = NewError(ErrCodeWouldBlock, "operation would block")

	// ErrClosed is returned by channel and broadcast operations after Close.
	ErrClosed = NewError(ErrCodeClosed, "primitive is closed")

	// ErrInvariantViolation reports misuse such as releasing more permits
	// than a semaphore was configured with.
	ErrInvariantViolation = NewError(ErrCodeInvariantViolation, "invariant violation")

	// ErrCanceled is the result of a future that was polled after Cancel.
	ErrCanceled = NewError(ErrCodeCanceled, "operation canceled")

	// ErrInvalidArgument reports a request that can never be satisfied.
	ErrInvalidArgument = NewError(ErrCodeInvalidArgument, "invalid argument")
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Is matches any *Error with the same code, so contextual errors compare
// equal to the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a copy of the error with an extra context entry.
// Sentinels are never mutated.
func (e *Error) WithContext(key string, value any) *Error {
	out := &Error{
		Code:    e.Code,
		Message: e.Message,
		Context: make(map[string]any, len(e.Context)+1),
	}
	for k, v := range e.Context {
		out.Context[k] = v
	}
	out.Context[key] = value
	return out
}

// CodeOf extracts the ErrorCode of err, looking through wrapping.
// It returns ErrCodeOK for nil and ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
