// Package channel
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Suspending message passing: a multi-producer/multi-consumer work queue
// (bounded or unbounded), a latest-value state broadcast, and a oneshot
// value cell. Operations follow the same future/context split as package
// syncx and are cancel-safe.
package channel
