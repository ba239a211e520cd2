// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform debug probes: CPU count, goroutines and the monotonic clock.

package control

import (
	"runtime"

	"github.com/momentics/hioload-async/clock"
)

// RegisterPlatformProbes sets platform-level debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	dp.RegisterProbe("platform.monotonic_ns", func() any {
		return clock.Monotonic{}.Now()
	})
}
