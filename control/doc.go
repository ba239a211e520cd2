// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug introspection
// layer for hioload-async.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and merged updates
//   - Reload listeners notified after every config change
//   - Counters and gauges for primitive telemetry
//   - Named debug probes exporting primitive statistics
package control
