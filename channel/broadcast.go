// File: channel/broadcast.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Latest-value state broadcast. Subscribers hold a StateID cursor and
// always receive the newest value published after it; intermediate values
// may be skipped.

package channel

import (
	"context"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
	"github.com/momentics/hioload-async/internal/waitq"
)

// StateID is the version a subscriber has observed. Zero means nothing
// has been observed yet.
type StateID uint64

// Update is one observation of a StateBroadcast.
type Update[T any] struct {
	ID    StateID
	Value T
}

// StateBroadcast stores the latest published value with a monotonically
// increasing version.
type StateBroadcast[T any] struct {
	mu api.RawLock

	// GUARDED_BY(mu)
	value   T
	version StateID
	closed  bool
	waiters waitq.Queue[StateID]
}

// BroadcastStats is a point-in-time view of a StateBroadcast.
type BroadcastStats struct {
	Version StateID
	Closed  bool
	Waiters int
}

// NewStateBroadcast creates an empty broadcast at version 0.
func NewStateBroadcast[T any](opts ...Option) *StateBroadcast[T] {
	o := buildOptions(opts)
	return &StateBroadcast[T]{mu: o.newLock()}
}

// Publish stores v as the latest value and wakes every waiting subscriber.
func (b *StateBroadcast[T]) Publish(v T) error {
	var ws waitq.Wakers
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return api.ErrClosed
	}
	b.value = v
	b.version++
	b.waiters.WakeAll(waitq.Notified, &ws)
	b.mu.Unlock()
	ws.Wake()
	return nil
}

// Close stops publishing. Subscribers behind the latest version still get
// it; caught-up subscribers get ErrClosed.
func (b *StateBroadcast[T]) Close() bool {
	var ws waitq.Wakers
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.closed = true
	b.waiters.WakeAll(waitq.Notified, &ws)
	b.mu.Unlock()
	ws.Wake()
	return true
}

// Subscribe returns a cursor at the current version: only later
// publications will be observed.
func (b *StateBroadcast[T]) Subscribe() StateID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// SubscribeFromStart returns the zero cursor: the first receive yields the
// current value if anything was published.
func (b *StateBroadcast[T]) SubscribeFromStart() StateID { return 0 }

// Version returns the latest version.
func (b *StateBroadcast[T]) Version() StateID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Stats returns a snapshot of the broadcast state.
func (b *StateBroadcast[T]) Stats() BroadcastStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BroadcastStats{Version: b.version, Closed: b.closed, Waiters: b.waiters.Len()}
}

// StatsSnapshot implements api.StatsProvider.
func (b *StateBroadcast[T]) StatsSnapshot() any { return b.Stats() }

// TryNext returns the latest value if it is newer than id.
func (b *StateBroadcast[T]) TryNext(id StateID) (Update[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.version > id {
		return Update[T]{ID: b.version, Value: b.value}, nil
	}
	if b.closed {
		return Update[T]{}, api.ErrClosed
	}
	return Update[T]{}, api.ErrWouldBlock
}

// ReceiveAsync returns a future resolving to the first value newer than id.
func (b *StateBroadcast[T]) ReceiveAsync(id StateID) *StateFuture[T] {
	return &StateFuture[T]{b: b, id: id}
}

// Next parks the calling goroutine until a value newer than id exists,
// the broadcast is closed, or ctx ends.
func (b *StateBroadcast[T]) Next(ctx context.Context, id StateID) (StateID, T, error) {
	u, err := future.Await[Update[T]](ctx, b.ReceiveAsync(id))
	return u.ID, u.Value, err
}

// StateFuture is a pending StateBroadcast receive.
type StateFuture[T any] struct {
	b     *StateBroadcast[T]
	id    StateID
	node  waitq.Node[StateID]
	phase phase
}

var _ api.Future[Update[int]] = (*StateFuture[int])(nil)

// Poll resolves once a version newer than the cursor exists.
func (f *StateFuture[T]) Poll(w api.Waker) (api.Result[Update[T]], bool) {
	b := f.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.phase != phasePending {
		return finishedResult[Update[T]](f.phase), true
	}
	if b.version > f.id {
		b.waiters.Remove(&f.node)
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(Update[T]{ID: b.version, Value: b.value}), true
	}
	if b.closed {
		b.waiters.Remove(&f.node)
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Fail[Update[T]](api.ErrClosed), true
	}
	f.node.Register(w)
	if f.node.State() != waitq.Queued {
		f.node.Value = f.id
		b.waiters.PushBack(&f.node)
	}
	return api.Result[Update[T]]{}, false
}

// Cancel removes the subscriber's waiter.
func (f *StateFuture[T]) Cancel() {
	b := f.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.phase != phasePending {
		return
	}
	f.phase = phaseCanceled
	b.waiters.Remove(&f.node)
	f.node.SetState(waitq.Idle)
}
