// Package clock
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Monotonic time sources implementing api.Clock.

package clock

import (
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-async/api"
)

var (
	_ api.Clock = Monotonic{}
	_ api.Clock = (*Manual)(nil)
)

// Monotonic reads the platform monotonic clock.
type Monotonic struct{}

// Now returns monotonic nanoseconds.
func (Monotonic) Now() int64 { return monotonicNow() }

var anchor = time.Now()

// sinceAnchor is the portable fallback: time.Since uses the monotonic
// reading embedded in anchor.
func sinceAnchor() int64 {
	return int64(time.Since(anchor))
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	now atomic.Int64
}

// NewManual creates a manual clock reading start.
func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// Now returns the current reading.
func (m *Manual) Now() int64 { return m.now.Load() }

// Set moves the clock to t. Moving backwards is ignored.
func (m *Manual) Set(t int64) {
	for {
		cur := m.now.Load()
		if t <= cur || m.now.CompareAndSwap(cur, t) {
			return
		}
	}
}

// Advance moves the clock forward by d and returns the new reading.
func (m *Manual) Advance(d time.Duration) int64 {
	if d < 0 {
		return m.now.Load()
	}
	return m.now.Add(int64(d))
}
