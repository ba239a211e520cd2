// File: timer/service.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/rawlock"
)

type options struct {
	newLock api.LockFactory
	slack   time.Duration
}

// Option customizes a Service.
type Option func(*options)

// WithLock selects the raw lock guarding the timer heap.
func WithLock(f api.LockFactory) Option {
	return func(o *options) {
		if f != nil {
			o.newLock = f
		}
	}
}

// WithSlack lets Run oversleep by up to d so that nearby deadlines are
// fired in one batch.
func WithSlack(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.slack = d
		}
	}
}

// Service is the shared timer reactor.
type Service struct {
	clock  api.Clock
	mu     api.RawLock
	slack  time.Duration
	notify chan struct{}

	// GUARDED_BY(mu)
	timers entryHeap
	seq    uint64
}

// Stats is a point-in-time view of a Service.
type Stats struct {
	Pending      int
	NextDeadline int64
}

var _ api.Scheduler = (*Service)(nil)

// NewService creates a timer service reading clk.
func NewService(clk api.Clock, opts ...Option) *Service {
	o := options{newLock: rawlock.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		clock:  clk,
		mu:     o.newLock(),
		slack:  o.slack,
		notify: make(chan struct{}, 1),
	}
}

// Now returns the service clock reading.
func (s *Service) Now() int64 { return s.clock.Now() }

// Stats returns a snapshot of the registered timers.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Pending: len(s.timers)}
	if len(s.timers) > 0 {
		st.NextDeadline = s.timers[0].deadline
	}
	return st
}

// StatsSnapshot implements api.StatsProvider.
func (s *Service) StatsSnapshot() any { return s.Stats() }

// registerLocked adds e to the heap and reports whether it became the
// earliest deadline.
func (s *Service) registerLocked(e *entry) bool {
	s.seq++
	e.seq = s.seq
	heap.Push(&s.timers, e)
	return e.index == 0
}

func (s *Service) unregisterLocked(e *entry) bool {
	if e.index < 0 {
		return false
	}
	heap.Remove(&s.timers, e.index)
	return true
}

// kick tells a running Run loop that the earliest deadline changed.
func (s *Service) kick() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// CheckExpirations fires every timer whose deadline has passed and returns
// the next pending deadline, if any. Wakers and callbacks run after the
// heap lock is released.
func (s *Service) CheckExpirations() (next int64, ok bool) {
	var wakers []api.Waker
	var fns []func()
	s.mu.Lock()
	now := s.clock.Now()
	for len(s.timers) > 0 && s.timers[0].deadline <= now {
		e := heap.Pop(&s.timers).(*entry)
		e.fired = true
		if e.waker != nil {
			wakers = append(wakers, e.waker)
			e.waker = nil
		}
		if e.fn != nil {
			fns = append(fns, e.fn)
		}
	}
	if len(s.timers) > 0 {
		next, ok = s.timers[0].deadline, true
	}
	s.mu.Unlock()
	for _, w := range wakers {
		w.Wake()
	}
	for _, fn := range fns {
		fn()
	}
	return next, ok
}

// Run drives the service until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	// go1.23 timer semantics: Stop and Reset never leave a stale tick in t.C
	t := time.NewTimer(time.Hour)
	t.Stop()
	defer t.Stop()
	for {
		next, ok := s.CheckExpirations()
		var fire <-chan time.Time
		if ok {
			d := waitFor(next, s.clock.Now(), s.slack)
			t.Reset(d)
			fire = t.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fire:
		case <-s.notify:
			t.Stop()
		}
	}
}

// Delay returns a future that completes d after now.
func (s *Service) Delay(d time.Duration) *Future {
	return s.DelayUntil(deadlineAfter(s.clock.Now(), int64(d)))
}

// DelayUntil returns a future that completes at or after deadline.
func (s *Service) DelayUntil(deadline int64) *Future {
	f := &Future{s: s}
	f.e.deadline = deadline
	f.e.index = -1
	return f
}

// Sleep parks the calling goroutine for d or until ctx ends.
func (s *Service) Sleep(ctx context.Context, d time.Duration) error {
	return s.wait(ctx, s.Delay(d))
}

// SleepUntil parks the calling goroutine until deadline or until ctx ends.
func (s *Service) SleepUntil(ctx context.Context, deadline int64) error {
	return s.wait(ctx, s.DelayUntil(deadline))
}

// Schedule runs fn on the goroutine that fires timers, delayNanos from now.
func (s *Service) Schedule(delayNanos int64, fn func()) (api.Cancelable, error) {
	if fn == nil {
		return nil, api.ErrInvalidArgument.WithContext("reason", "nil callback")
	}
	sc := &Scheduled{s: s, done: make(chan struct{})}
	sc.e.deadline = deadlineAfter(s.clock.Now(), delayNanos)
	sc.e.index = -1
	sc.e.fn = func() {
		sc.finish(nil)
		fn()
	}
	s.mu.Lock()
	first := s.registerLocked(&sc.e)
	s.mu.Unlock()
	if first {
		s.kick()
	}
	return sc, nil
}

// Cancel cancels a callback returned by Schedule.
func (s *Service) Cancel(c api.Cancelable) error {
	if c == nil {
		return api.ErrInvalidArgument
	}
	return c.Cancel()
}

// deadlineAfter returns now+d, saturating at math.MaxInt64 so a huge delay
// never wraps into the past.
func deadlineAfter(now, d int64) int64 {
	if d > 0 && now > math.MaxInt64-d {
		return math.MaxInt64
	}
	return now + d
}

// waitFor is the time Run sleeps before deadline next, plus slack. It is
// never negative and saturates instead of overflowing.
func waitFor(next, now int64, slack time.Duration) time.Duration {
	if next <= now {
		return slack
	}
	if now < 0 && next > math.MaxInt64+now {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(deadlineAfter(next-now, int64(slack)))
}
