// File: syncx/mutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mutex suspends lockers instead of blocking threads.
//
// Fair mode hands the lock directly to the oldest waiter on unlock, so
// locked stays true while anyone is queued and late arrivals cannot barge.
// Unfair mode clears locked and notifies the oldest waiter, which competes
// with new arrivals when it is polled again.

package syncx

import (
	"context"
	"sync/atomic"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
	"github.com/momentics/hioload-async/internal/waitq"
)

// Mutex is a suspending mutual-exclusion lock.
type Mutex struct {
	mu   api.RawLock
	fair bool

	// GUARDED_BY(mu)
	locked  bool
	waiters waitq.Queue[struct{}]
}

// MutexStats is a point-in-time view of a Mutex.
type MutexStats struct {
	Locked  bool
	Waiters int
	Fair    bool
}

// NewMutex creates an unlocked mutex.
func NewMutex(opts ...Option) *Mutex {
	o := buildOptions(opts)
	return &Mutex{mu: o.newLock(), fair: o.fair}
}

// TryLock acquires the mutex if it is free. It never suspends.
func (m *Mutex) TryLock() (*MutexGuard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return nil, false
	}
	m.locked = true
	return &MutexGuard{m: m}, true
}

// LockAsync returns a future that resolves to a guard once the mutex is held.
func (m *Mutex) LockAsync() *LockFuture {
	return &LockFuture{m: m}
}

// Lock parks the calling goroutine until the mutex is held or ctx ends.
func (m *Mutex) Lock(ctx context.Context) (*MutexGuard, error) {
	return future.Await[*MutexGuard](ctx, m.LockAsync())
}

// IsLocked reports whether the mutex is currently held or being handed over.
func (m *Mutex) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// Stats returns a snapshot of the mutex state.
func (m *Mutex) Stats() MutexStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MutexStats{Locked: m.locked, Waiters: m.waiters.Len(), Fair: m.fair}
}

// StatsSnapshot implements api.StatsProvider.
func (m *Mutex) StatsSnapshot() any { return m.Stats() }

// unlockLocked releases ownership with mu held and collects the waker of
// whoever must run next.
func (m *Mutex) unlockLocked(ws *waitq.Wakers) {
	if m.fair {
		if n := m.waiters.PopFront(); n != nil {
			n.SetState(waitq.Done)
			ws.Add(n.TakeWaker())
			return
		}
		m.locked = false
		return
	}
	m.locked = false
	m.waiters.WakeOne(ws)
}

func (m *Mutex) unlock() {
	var ws waitq.Wakers
	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panic("syncx: unlock of unlocked mutex")
	}
	m.unlockLocked(&ws)
	m.mu.Unlock()
	ws.Wake()
}

// MutexGuard represents ownership of a Mutex.
type MutexGuard struct {
	m        *Mutex
	released atomic.Bool
}

// Unlock releases the mutex. Calling it more than once is a no-op.
func (g *MutexGuard) Unlock() {
	if g.released.CompareAndSwap(false, true) {
		g.m.unlock()
	}
}

// LockFuture is a pending Mutex acquisition.
type LockFuture struct {
	m     *Mutex
	node  waitq.Node[struct{}]
	phase phase
}

var _ api.Future[*MutexGuard] = (*LockFuture)(nil)

// Poll tries to take the mutex, registering w while it waits.
func (f *LockFuture) Poll(w api.Waker) (api.Result[*MutexGuard], bool) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.phase != phasePending {
		return finishedResult[*MutexGuard](f.phase), true
	}
	switch f.node.State() {
	case waitq.Done:
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(&MutexGuard{m: m}), true
	case waitq.Queued:
		f.node.Register(w)
		return api.Result[*MutexGuard]{}, false
	}
	if !m.locked {
		m.locked = true
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(&MutexGuard{m: m}), true
	}
	f.node.Register(w)
	if f.node.State() == waitq.Notified {
		// lost the race after a wakeup: keep the original position
		m.waiters.PushFront(&f.node)
	} else {
		m.waiters.PushBack(&f.node)
	}
	return api.Result[*MutexGuard]{}, false
}

// Cancel abandons the acquisition. A lock that was already handed to this
// future is forwarded to the next waiter; an unanswered wakeup is passed on.
func (f *LockFuture) Cancel() {
	var ws waitq.Wakers
	m := f.m
	m.mu.Lock()
	if f.phase != phasePending {
		m.mu.Unlock()
		return
	}
	f.phase = phaseCanceled
	switch f.node.State() {
	case waitq.Queued:
		m.waiters.Remove(&f.node)
	case waitq.Done:
		m.unlockLocked(&ws)
	case waitq.Notified:
		if !m.locked {
			m.waiters.WakeOne(&ws)
		}
	}
	f.node.SetState(waitq.Idle)
	m.mu.Unlock()
	ws.Wake()
}
