//go:build linux
// +build linux

// File: clock/clock_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package clock

import "golang.org/x/sys/unix"

func monotonicNow() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return sinceAnchor()
	}
	return ts.Nano()
}
