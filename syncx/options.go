// File: syncx/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package syncx

import (
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/rawlock"
)

type options struct {
	newLock api.LockFactory
	fair    bool
}

// Option customizes primitive construction.
type Option func(*options)

// WithLock selects the raw lock guarding the primitive state.
func WithLock(f api.LockFactory) Option {
	return func(o *options) {
		if f != nil {
			o.newLock = f
		}
	}
}

// WithLockKind is shorthand for WithLock(rawlock.Factory(k)).
func WithLockKind(k rawlock.Kind) Option {
	return WithLock(rawlock.Factory(k))
}

// WithFairness toggles FIFO handoff. Fair is the default.
func WithFairness(fair bool) Option {
	return func(o *options) {
		o.fair = fair
	}
}

func buildOptions(opts []Option) options {
	o := options{newLock: rawlock.Default, fair: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// phase tracks what the owner of a future has observed.
type phase uint8

const (
	phasePending phase = iota
	phaseConsumed
	phaseCanceled
)

var errPolledAfterCompletion = api.ErrInvariantViolation.WithContext("reason", "future polled after completion")

func finishedResult[T any](p phase) api.Result[T] {
	if p == phaseCanceled {
		return api.Fail[T](api.ErrCanceled)
	}
	return api.Fail[T](errPolledAfterCompletion)
}
