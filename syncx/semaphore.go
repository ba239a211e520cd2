// File: syncx/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counting semaphore with atomic multi-permit acquisition.
//
// Permits are granted directly to queued requests on release, so a request
// for n permits never holds a partial count while waiting. Fair mode grants
// strictly in arrival order: a large request at the head blocks smaller
// ones behind it. Unfair mode grants, in arrival order, every queued request
// that fits.

package syncx

import (
	"context"
	"sync/atomic"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
	"github.com/momentics/hioload-async/internal/waitq"
)

// Semaphore is a suspending counting semaphore.
type Semaphore struct {
	mu   api.RawLock
	fair bool

	// Constant after construction.
	total int

	// INVARIANT: 0 <= available <= total
	// INVARIANT: available + permits held by granted acquirers == total
	//
	// GUARDED_BY(mu)
	available int
	waiters   waitq.Queue[int]
}

// SemaphoreStats is a point-in-time view of a Semaphore.
type SemaphoreStats struct {
	Total     int
	Available int
	Waiters   int
	Fair      bool
}

// NewSemaphore creates a semaphore holding permits available permits.
// Negative counts are treated as zero.
func NewSemaphore(permits int, opts ...Option) *Semaphore {
	if permits < 0 {
		permits = 0
	}
	o := buildOptions(opts)
	return &Semaphore{
		mu:        o.newLock(),
		fair:      o.fair,
		total:     permits,
		available: permits,
	}
}

// Total returns the configured number of permits.
func (s *Semaphore) Total() int { return s.total }

// Available returns the number of permits not currently held.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// Stats returns a snapshot of the semaphore state.
func (s *Semaphore) Stats() SemaphoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SemaphoreStats{Total: s.total, Available: s.available, Waiters: s.waiters.Len(), Fair: s.fair}
}

// StatsSnapshot implements api.StatsProvider.
func (s *Semaphore) StatsSnapshot() any { return s.Stats() }

func (s *Semaphore) validate(n int) error {
	if n < 0 || n > s.total {
		return api.ErrInvalidArgument.
			WithContext("requested", n).
			WithContext("total", s.total)
	}
	return nil
}

// TryAcquire takes n permits if they are available right now. In fair mode
// it also fails while other requests are queued.
func (s *Semaphore) TryAcquire(n int) (*Permit, error) {
	if err := s.validate(n); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.available < n || (s.fair && !s.waiters.Empty()) {
		return nil, api.ErrWouldBlock
	}
	s.available -= n
	return &Permit{s: s, n: n}, nil
}

// AcquireAsync returns a future that resolves once n permits are held.
func (s *Semaphore) AcquireAsync(n int) *AcquireFuture {
	return &AcquireFuture{s: s, n: n}
}

// Acquire parks the calling goroutine until n permits are held or ctx ends.
func (s *Semaphore) Acquire(ctx context.Context, n int) (*Permit, error) {
	return future.Await[*Permit](ctx, s.AcquireAsync(n))
}

// Release returns n permits that were acquired earlier and detached with
// Permit.Forget. Releasing more than the configured total is reported as
// ErrInvariantViolation and changes nothing.
func (s *Semaphore) Release(n int) error {
	if n < 0 {
		return api.ErrInvalidArgument.WithContext("released", n)
	}
	var ws waitq.Wakers
	s.mu.Lock()
	if s.available+n > s.total {
		avail := s.available
		s.mu.Unlock()
		return api.ErrInvariantViolation.
			WithContext("released", n).
			WithContext("available", avail).
			WithContext("total", s.total)
	}
	s.available += n
	s.grantLocked(&ws)
	s.mu.Unlock()
	ws.Wake()
	return nil
}

// grantLocked hands available permits to queued requests.
func (s *Semaphore) grantLocked(ws *waitq.Wakers) {
	s.waiters.Each(func(n *waitq.Node[int]) bool {
		if n.Value > s.available {
			return !s.fair
		}
		s.available -= n.Value
		w := n.TakeWaker()
		s.waiters.Remove(n)
		n.SetState(waitq.Done)
		ws.Add(w)
		return true
	})
}

// Permit represents n held permits.
type Permit struct {
	s        *Semaphore
	n        int
	released atomic.Bool
}

// Count returns the number of permits held.
func (p *Permit) Count() int { return p.n }

// Release returns the permits. Calling it more than once is a no-op.
func (p *Permit) Release() {
	if p.released.CompareAndSwap(false, true) && p.n > 0 {
		// cannot overflow: these permits were taken from s
		_ = p.s.Release(p.n)
	}
}

// Forget detaches the permits from p without returning them. The caller
// becomes responsible for a matching Semaphore.Release.
func (p *Permit) Forget() int {
	if p.released.CompareAndSwap(false, true) {
		return p.n
	}
	return 0
}

// AcquireFuture is a pending Semaphore acquisition.
type AcquireFuture struct {
	s     *Semaphore
	n     int
	node  waitq.Node[int]
	phase phase
}

var _ api.Future[*Permit] = (*AcquireFuture)(nil)

// Poll tries to take the requested permits, registering w while it waits.
func (f *AcquireFuture) Poll(w api.Waker) (api.Result[*Permit], bool) {
	s := f.s
	if err := s.validate(f.n); err != nil {
		return api.Fail[*Permit](err), true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.phase != phasePending {
		return finishedResult[*Permit](f.phase), true
	}
	switch f.node.State() {
	case waitq.Done:
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(&Permit{s: s, n: f.n}), true
	case waitq.Queued:
		f.node.Register(w)
		return api.Result[*Permit]{}, false
	}
	if s.available >= f.n && (!s.fair || s.waiters.Empty()) {
		s.available -= f.n
		f.phase = phaseConsumed
		return api.Ok(&Permit{s: s, n: f.n}), true
	}
	f.node.Value = f.n
	f.node.Register(w)
	s.waiters.PushBack(&f.node)
	return api.Result[*Permit]{}, false
}

// Cancel abandons the acquisition. Nothing is released for a request that
// was still queued; permits already granted to it are returned.
func (f *AcquireFuture) Cancel() {
	var ws waitq.Wakers
	s := f.s
	s.mu.Lock()
	if f.phase != phasePending {
		s.mu.Unlock()
		return
	}
	f.phase = phaseCanceled
	switch f.node.State() {
	case waitq.Queued:
		wasHead := s.waiters.Front() == &f.node
		s.waiters.Remove(&f.node)
		if wasHead && s.fair {
			// the head may have been the only thing holding others back
			s.grantLocked(&ws)
		}
	case waitq.Done:
		s.available += f.n
		s.grantLocked(&ws)
	}
	f.node.SetState(waitq.Idle)
	s.mu.Unlock()
	ws.Wake()
}
