// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executors that drive pollable tasks: a single-goroutine event loop for
// cooperative use, and a worker pool for parallel use. Both share the
// MPMC ring buffer and the wake-coalescing task wrapper defined here.
package concurrency
