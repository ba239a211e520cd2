// File: rawlock/spin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Test-and-test-and-set spinlock with bounded busy spinning before yielding.

package rawlock

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const spinBeforeYield = 64

// Spin is a CAS spinlock. Critical sections in this module are O(1) or
// O(waiters), which is what makes spinning acceptable.
type Spin struct {
	_     cpu.CacheLinePad
	state atomic.Uint32
	_     cpu.CacheLinePad
}

// Lock acquires the lock, yielding the processor after a short spin.
func (l *Spin) Lock() {
	spins := 0
	for {
		if l.state.Load() == 0 && l.state.CompareAndSwap(0, 1) {
			return
		}
		spins++
		if spins >= spinBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock if it is free.
func (l *Spin) TryLock() bool {
	return l.state.Load() == 0 && l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking a free lock panics.
func (l *Spin) Unlock() {
	if l.state.Swap(0) != 1 {
		panic("rawlock: unlock of unlocked spinlock")
	}
}
