// File: api/lock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw lock capability protecting primitive state.

package api

// RawLock guards the internal state of a primitive. It is held only while
// state is inspected or mutated, never across a suspension point, and never
// while wakers run.
type RawLock interface {
	Lock()
	Unlock()
}

// TryLocker is implemented by raw locks that support a non-blocking acquire.
type TryLocker interface {
	TryLock() bool
}

// LockFactory creates a fresh RawLock for one primitive instance.
type LockFactory func() RawLock
