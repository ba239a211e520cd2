// File: channel/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package channel

import (
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/rawlock"
)

type options struct {
	newLock api.LockFactory
}

// Option customizes channel construction.
type Option func(*options)

// WithLock selects the raw lock guarding the channel state.
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

func buildOptions(opts []Option) options {
	o := options{newLock: rawlock.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

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
