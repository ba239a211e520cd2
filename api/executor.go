// Package api
// Author: momentics
//
// Executor contract for parallel task dispatch and poll-task scheduling.

package api

// Executor abstracts parallel task execution.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns current number of active worker routines.
	NumWorkers() int

	// Resize adjusts the concurrency at runtime.
	Resize(newCount int)
}

// PollTask is one step of a cooperative task. It returns true when the task
// has finished; otherwise it must have registered w with whatever it is
// waiting on.
type PollTask func(w Waker) bool

// Spawner runs poll tasks until completion.
type Spawner interface {
	Spawn(task PollTask) error
}
