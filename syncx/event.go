// File: syncx/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Level-triggered manual-reset event.

package syncx

import (
	"context"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
	"github.com/momentics/hioload-async/internal/waitq"
)

// ManualResetEvent releases every waiter once set and stays set until Reset.
// Reset never recalls a wakeup that Set already delivered.
type ManualResetEvent struct {
	mu api.RawLock

	// GUARDED_BY(mu)
	set     bool
	waiters waitq.Queue[struct{}]
}

// EventStats is a point-in-time view of a ManualResetEvent.
type EventStats struct {
	Set     bool
	Waiters int
}

// NewManualResetEvent creates an event in the given state. Fairness
// options are ignored.
func NewManualResetEvent(set bool, opts ...Option) *ManualResetEvent {
	o := buildOptions(opts)
	return &ManualResetEvent{mu: o.newLock(), set: set}
}

// Set signals the event, completing every queued waiter.
func (e *ManualResetEvent) Set() {
	var ws waitq.Wakers
	e.mu.Lock()
	e.set = true
	e.waiters.WakeAll(waitq.Done, &ws)
	e.mu.Unlock()
	ws.Wake()
}

// Reset clears the event for future waiters.
func (e *ManualResetEvent) Reset() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()
}

// IsSet reports the current state.
func (e *ManualResetEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Stats returns a snapshot of the event state.
func (e *ManualResetEvent) Stats() EventStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EventStats{Set: e.set, Waiters: e.waiters.Len()}
}

// StatsSnapshot implements api.StatsProvider.
func (e *ManualResetEvent) StatsSnapshot() any { return e.Stats() }

// WaitAsync returns a future that completes once the event is set.
func (e *ManualResetEvent) WaitAsync() *WaitFuture {
	return &WaitFuture{e: e}
}

// Wait parks the calling goroutine until the event is set or ctx ends.
func (e *ManualResetEvent) Wait(ctx context.Context) error {
	_, err := future.Await[struct{}](ctx, e.WaitAsync())
	return err
}

// WaitFuture is a pending wait on a ManualResetEvent.
type WaitFuture struct {
	e     *ManualResetEvent
	node  waitq.Node[struct{}]
	phase phase
}

var _ api.Future[struct{}] = (*WaitFuture)(nil)

// Poll completes if the event is set or this waiter was released by Set.
func (f *WaitFuture) Poll(w api.Waker) (api.Result[struct{}], bool) {
	e := f.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if f.phase != phasePending {
		return finishedResult[struct{}](f.phase), true
	}
	switch f.node.State() {
	case waitq.Done:
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(struct{}{}), true
	case waitq.Queued:
		f.node.Register(w)
		return api.Result[struct{}]{}, false
	}
	if e.set {
		f.phase = phaseConsumed
		return api.Ok(struct{}{}), true
	}
	f.node.Register(w)
	e.waiters.PushBack(&f.node)
	return api.Result[struct{}]{}, false
}

// Cancel removes the waiter. It has no effect on the event.
func (f *WaitFuture) Cancel() {
	e := f.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if f.phase != phasePending {
		return
	}
	f.phase = phaseCanceled
	e.waiters.Remove(&f.node)
	f.node.SetState(waitq.Idle)
}
