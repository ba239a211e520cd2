// Package api
// Author: momentics@gmail.com
//
// Generic result, pollable futures and cancellation.

package api

// Result wraps any payload or error.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok builds a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail builds a failed Result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Future is a suspended operation driven by an external executor.
//
// Poll never blocks. It either reports ready with the final Result, or
// registers w and reports pending; w.Wake is then invoked at most once when
// the operation may make progress, and the executor polls again. Polling
// again with a different waker replaces the registered one.
//
// Cancel abandons the operation. It is safe at any time, including after a
// resource was granted but before the caller polled it out; granted
// resources are handed on, never leaked. After Cancel, Poll reports
// ErrCanceled unless the result had already been consumed.
type Future[T any] interface {
	Poll(w Waker) (Result[T], bool)
	Cancel()
}

// Cancelable is any operation that may be canceled.
type Cancelable interface {
	// Cancel attempts to abort the operation.
	Cancel() error
	// Done signals completion/cancellation.
	Done() <-chan struct{}
	// Err returns cancellation reason.
	Err() error
}
