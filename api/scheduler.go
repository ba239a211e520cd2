// Package api
// Author: momentics
//
// Scheduler contract for timed callbacks on a shared timer reactor.

package api

// Scheduler abstracts timer scheduling for async loops.
type Scheduler interface {
	// Schedule schedules a callback to be executed after delayNanos.
	Schedule(delayNanos int64, fn func()) (Cancelable, error)

	// Cancel cancels a previously scheduled callback.
	Cancel(c Cancelable) error

	// Now returns monotonic time in nanoseconds.
	Now() int64
}
