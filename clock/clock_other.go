//go:build !linux
// +build !linux

// File: clock/clock_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package clock

func monotonicNow() int64 { return sinceAnchor() }
