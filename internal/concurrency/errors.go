// File: internal/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrExecutorClosed indicates the executor has been shut down
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("nil task")
)
