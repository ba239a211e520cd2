// File: timer/future.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"context"
	"sync"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
)

// Future completes once the service clock reaches its deadline.
type Future struct {
	s        *Service
	e        entry
	consumed bool
	canceled bool
}

var _ api.Future[struct{}] = (*Future)(nil)

// Deadline returns the monotonic deadline in nanoseconds.
func (f *Future) Deadline() int64 { return f.e.deadline }

// Poll completes when the deadline has passed, registering w otherwise.
func (f *Future) Poll(w api.Waker) (api.Result[struct{}], bool) {
	s := f.s
	s.mu.Lock()
	if f.canceled {
		s.mu.Unlock()
		return api.Fail[struct{}](api.ErrCanceled), true
	}
	if f.consumed || f.e.fired || s.clock.Now() >= f.e.deadline {
		s.unregisterLocked(&f.e)
		f.consumed = true
		s.mu.Unlock()
		return api.Ok(struct{}{}), true
	}
	f.e.waker = w
	first := false
	if f.e.index < 0 {
		first = s.registerLocked(&f.e)
	}
	s.mu.Unlock()
	if first {
		s.kick()
	}
	return api.Result[struct{}]{}, false
}

// Cancel drops the registration.
func (f *Future) Cancel() {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.consumed || f.canceled {
		return
	}
	f.canceled = true
	s.unregisterLocked(&f.e)
	f.e.waker = nil
}

func (s *Service) wait(ctx context.Context, f *Future) error {
	_, err := future.Await[struct{}](ctx, f)
	return err
}

// Scheduled is a callback registered with Service.Schedule.
type Scheduled struct {
	s    *Service
	e    entry
	once sync.Once
	done chan struct{}
	err  error
}

var _ api.Cancelable = (*Scheduled)(nil)

func (sc *Scheduled) finish(err error) bool {
	first := false
	sc.once.Do(func() {
		sc.err = err
		close(sc.done)
		first = true
	})
	return first
}

// Cancel prevents the callback from running if it has not fired yet.
func (sc *Scheduled) Cancel() error {
	sc.s.mu.Lock()
	removed := sc.s.unregisterLocked(&sc.e)
	sc.s.mu.Unlock()
	if removed {
		sc.finish(api.ErrCanceled)
		return nil
	}
	select {
	case <-sc.done:
		if sc.err == nil {
			return api.ErrInvalidArgument.WithContext("reason", "callback already fired")
		}
		return nil
	default:
		// popped by CheckExpirations, about to run
		return api.ErrInvalidArgument.WithContext("reason", "callback already fired")
	}
}

// Done is closed when the callback fires or is cancelled.
func (sc *Scheduled) Done() <-chan struct{} { return sc.done }

// Err returns ErrCanceled after a successful Cancel, nil otherwise.
func (sc *Scheduled) Err() error {
	select {
	case <-sc.done:
		return sc.err
	default:
		return nil
	}
}
