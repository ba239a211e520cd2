// File: internal/concurrency/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"log"
	"sync/atomic"

	"github.com/momentics/hioload-async/api"
)

const (
	taskIdle int32 = iota
	taskScheduled
	taskRunning
	taskRunningWoken // woken while running: poll again afterwards
	taskDone
)

// pollTask wraps an api.PollTask as its own waker. Wakes that arrive while
// the task is already scheduled are coalesced, and a task is never polled
// by two goroutines at once.
type pollTask struct {
	poll     api.PollTask
	schedule func(*pollTask)
	state    atomic.Int32
}

func newPollTask(poll api.PollTask, schedule func(*pollTask)) *pollTask {
	t := &pollTask{poll: poll, schedule: schedule}
	t.state.Store(taskScheduled)
	return t
}

// Wake reschedules the task unless it is already scheduled or finished.
func (t *pollTask) Wake() {
	for {
		switch s := t.state.Load(); s {
		case taskIdle:
			if t.state.CompareAndSwap(s, taskScheduled) {
				t.schedule(t)
				return
			}
		case taskRunning:
			if t.state.CompareAndSwap(s, taskRunningWoken) {
				return
			}
		default:
			return
		}
	}
}

// step polls once. It reports true when the task finished in this step.
func (t *pollTask) step() bool {
	if !t.state.CompareAndSwap(taskScheduled, taskRunning) {
		return false
	}
	if t.safePoll() {
		t.state.Store(taskDone)
		return true
	}
	if !t.state.CompareAndSwap(taskRunning, taskIdle) {
		// woken during the poll
		t.state.Store(taskScheduled)
		t.schedule(t)
	}
	return false
}

func (t *pollTask) safePoll() (done bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[executor] poll task panic recovered: %v", r)
			done = true
		}
	}()
	return t.poll(t)
}
