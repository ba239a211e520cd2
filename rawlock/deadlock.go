// File: rawlock/deadlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deadlock-detecting lock for debugging lock-order problems between
// primitives. Reports are produced by go-deadlock.

package rawlock

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Deadlock wraps a go-deadlock mutex.
type Deadlock struct {
	mu deadlock.Mutex
}

func (l *Deadlock) Lock()   { l.mu.Lock() }
func (l *Deadlock) Unlock() { l.mu.Unlock() }

// SetDeadlockTimeout adjusts how long a Deadlock lock may be waited on
// before go-deadlock reports it. Zero disables the timeout check.
func SetDeadlockTimeout(d time.Duration) {
	deadlock.Opts.DeadlockTimeout = d
}

// OnPotentialDeadlock replaces the go-deadlock report handler, which
// otherwise exits the process.
func OnPotentialDeadlock(fn func()) {
	deadlock.Opts.OnPotentialDeadlock = fn
}
