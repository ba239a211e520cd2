// Package api
// Author: momentics
//
// Live debug support for production workloads.

package api

// Debug exposes runtime introspection.
type Debug interface {
	// DumpState emits a snapshot of system state for diagnostics.
	DumpState() map[string]any

	// RegisterProbe dynamically registers new debug probes.
	RegisterProbe(name string, fn func() any)
}

// StatsProvider is implemented by every primitive; the value returned is a
// point-in-time snapshot suitable for a debug probe.
type StatsProvider interface {
	StatsSnapshot() any
}
