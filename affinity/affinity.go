// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.
// Callers must hold runtime.LockOSThread for the pin to stick to their goroutine.

package affinity

import "runtime"

// SetAffinity pins current OS thread to a given logical CPU/core on supported platforms.
// On unsupported platforms returns an error.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// CPUFor maps a worker index onto a logical CPU.
func CPUFor(worker int) int {
	n := runtime.NumCPU()
	if worker < 0 {
		worker = -worker
	}
	return worker % n
}
