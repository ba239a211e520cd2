// File: api/waker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wake contract between primitives and the task scheduler.

package api

// Waker signals the scheduler that a suspended task should be polled again.
// Implementations must be safe to call from any goroutine.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to the Waker interface.
type WakerFunc func()

// Wake calls f.
func (f WakerFunc) Wake() { f() }

// NoopWaker discards wakeups. Useful for a single opportunistic poll.
var NoopWaker Waker = WakerFunc(func() {})
