// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Contracts shared by every hioload-async package: the waker/future
// suspension protocol, raw locks, clocks, schedulers, executors, and the
// structured error taxonomy.
package api
