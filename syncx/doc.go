// Package syncx
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Suspending mutual exclusion and signalling primitives: Mutex, Semaphore
// and ManualResetEvent.
//
// Every suspending operation comes in two shapes. The Async form returns an
// api.Future for callers that run their own executor; the plain form takes a
// context.Context and parks the calling goroutine. Both are cancel-safe: an
// abandoned operation never leaks a queue entry, a lock, or permits.
//
// State is guarded by a per-primitive api.RawLock (see package rawlock) that
// is never held while a waker runs.
package syncx
