// File: adapters/executor_adapter.go
// Package adapters provides glue between internal concurrency and api.Executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements api.Executor and api.Spawner by delegating to
// the internal worker pool.

package adapters

import (
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/internal/concurrency"
)

var (
	_ api.Executor         = (*ExecutorAdapter)(nil)
	_ api.Spawner          = (*ExecutorAdapter)(nil)
	_ api.GracefulShutdown = (*ExecutorAdapter)(nil)
)

// ExecutorAdapter wraps an internal concurrency.Executor.
type ExecutorAdapter struct {
	exec *concurrency.Executor
}

// NewExecutorAdapter starts a pool of workers goroutines, each holding a
// ring of ringCapacity tasks. pin binds every worker to one CPU.
func NewExecutorAdapter(workers, ringCapacity int, pin bool) *ExecutorAdapter {
	e := concurrency.NewExecutor(concurrency.Options{
		NumWorkers: workers,
		QueueSize:  ringCapacity,
		Pin:        pin,
	})
	return &ExecutorAdapter{exec: e}
}

// Submit dispatches a task function to be executed asynchronously.
func (ea *ExecutorAdapter) Submit(task func()) error {
	return ea.exec.Submit(task)
}

// Spawn runs a poll task until it reports completion.
func (ea *ExecutorAdapter) Spawn(task api.PollTask) error {
	return ea.exec.Spawn(task)
}

// NumWorkers returns the current number of active worker goroutines.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.exec.NumWorkers()
}

// Resize adjusts the size of the worker pool.
func (ea *ExecutorAdapter) Resize(newCount int) {
	ea.exec.Resize(newCount)
}

// Stats returns pool counters.
func (ea *ExecutorAdapter) Stats() map[string]int64 {
	return ea.exec.Stats()
}

// StatsSnapshot implements api.StatsProvider.
func (ea *ExecutorAdapter) StatsSnapshot() any {
	return ea.exec.Stats()
}

// Close stops the workers.
func (ea *ExecutorAdapter) Close() {
	ea.exec.Close()
}

// Shutdown implements api.GracefulShutdown.
func (ea *ExecutorAdapter) Shutdown() error {
	ea.exec.Close()
	return nil
}
