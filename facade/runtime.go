// File: facade/runtime.go
// Unified facade layer for hioload-async.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime aggregates the control plane, the monotonic clock, the shared
// timer service and the worker pool behind one object, and builds
// primitives configured from Config.

package facade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/momentics/hioload-async/adapters"
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/channel"
	"github.com/momentics/hioload-async/clock"
	"github.com/momentics/hioload-async/rawlock"
	"github.com/momentics/hioload-async/syncx"
	"github.com/momentics/hioload-async/timer"
)

// Runtime is the main facade type.
type Runtime struct {
	config   *Config
	locks    api.LockFactory
	control  *adapters.ControlAdapter
	clock    api.Clock
	timers   *timer.Service
	executor *adapters.ExecutorAdapter

	mu        sync.Mutex // guards lifecycle fields below
	started   bool
	shutdown  bool
	stopTimer context.CancelFunc
	timerDone chan struct{}
}

var _ api.GracefulShutdown = (*Runtime)(nil)

// New builds a Runtime. A nil cfg means DefaultConfig().
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := *cfg
	r := &Runtime{
		config:  &c,
		control: adapters.NewControlAdapter(),
		clock:   clock.Monotonic{},
	}
	r.locks = rawlock.Factory(c.lockKind())
	// the heap is always shared with the Run goroutine
	r.timers = timer.NewService(r.clock, timer.WithLock(rawlock.Default), timer.WithSlack(c.TimerSlack))
	r.executor = adapters.NewExecutorAdapter(c.NumWorkers, c.RingCapacity, c.PinWorkers)

	if err := r.control.SetConfig(c.toMap()); err != nil {
		return nil, fmt.Errorf("facade: publish config: %w", err)
	}
	r.control.OnReload(r.applyReload)
	if c.EnableDebug {
		r.control.RegisterDebugProbe("timer", r.timers.StatsSnapshot)
		r.control.RegisterDebugProbe("executor", r.executor.StatsSnapshot)
	}
	log.Printf("[facade] runtime created: lock=%s workers=%d", c.LockKind, r.executor.NumWorkers())
	return r, nil
}

// applyReload reacts to Control updates that can change at runtime.
func (r *Runtime) applyReload() {
	v, ok := r.control.GetConfig()["num_workers"]
	if !ok {
		return
	}
	n, ok := v.(int)
	if !ok || n < 0 {
		return
	}
	if n == 0 {
		n = runtime.NumCPU()
	}
	if n != r.executor.NumWorkers() {
		r.executor.Resize(n)
	}
}

// Start launches the timer loop. Subsequent calls have no effect.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return api.ErrClosed.WithContext("component", "runtime")
	}
	if r.started {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.stopTimer = cancel
	r.timerDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		if err := r.timers.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[facade] timer loop exited: %v", err)
		}
	}(r.timerDone)
	r.started = true
	if r.config.EnableMetrics {
		r.control.SetMetric("runtime.started_at", time.Now().Format(time.RFC3339Nano))
	}
	log.Printf("[facade] runtime started")
	return nil
}

// Stop halts the timer loop. Pending timers stay registered and fire after
// the next Start.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil
	}
	r.stopTimer()
	<-r.timerDone
	r.started = false
	log.Printf("[facade] runtime stopped")
	return nil
}

// Shutdown stops the timer loop and the worker pool. It is idempotent.
func (r *Runtime) Shutdown() error {
	if err := r.Stop(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return nil
	}
	r.shutdown = true
	return r.executor.Shutdown()
}

// Config returns a copy of the active configuration.
func (r *Runtime) Config() Config { return *r.config }

// Control returns the control plane.
func (r *Runtime) Control() api.Control { return r.control }

// Clock returns the monotonic clock used by the timer service.
func (r *Runtime) Clock() api.Clock { return r.clock }

// Timers returns the shared timer service.
func (r *Runtime) Timers() *timer.Service { return r.timers }

// Scheduler returns the timer service as an api.Scheduler.
func (r *Runtime) Scheduler() api.Scheduler { return r.timers }

// Executor returns the worker pool.
func (r *Runtime) Executor() api.Executor { return r.executor }

// Submit runs fn on the worker pool.
func (r *Runtime) Submit(fn func()) error { return r.executor.Submit(fn) }

// Spawn runs a poll task on the worker pool.
func (r *Runtime) Spawn(task api.PollTask) error { return r.executor.Spawn(task) }

// Sleep parks the caller for d on the shared timer service. The runtime
// must be started.
func (r *Runtime) Sleep(ctx context.Context, d time.Duration) error {
	return r.timers.Sleep(ctx, d)
}

// DumpState returns the output of every debug probe.
func (r *Runtime) DumpState() map[string]any {
	return r.control.Debug().DumpState()
}

// register counts a new primitive and, when it is named, exposes its
// statistics as probe "<kind>.<name>". The probe keeps the primitive
// reachable until Release is called; unnamed primitives get no probe.
func (r *Runtime) register(kind, name string, p api.StatsProvider) {
	if r.config.EnableMetrics {
		r.control.AddMetric(kind+".created", 1)
	}
	if !r.config.EnableDebug || name == "" {
		return
	}
	r.control.RegisterDebugProbe(kind+"."+name, p.StatsSnapshot)
}

// Release drops the debug probe of a named primitive, e.g.
// Release("mutex", "state"), so the primitive can be collected.
func (r *Runtime) Release(kind, name string) {
	r.control.UnregisterDebugProbe(kind + "." + name)
}

// NewMutex creates a mutex using the configured lock kind and fairness.
// name labels its debug probe; empty names register none.
func (r *Runtime) NewMutex(name string) *syncx.Mutex {
	m := syncx.NewMutex(syncx.WithLock(r.locks), syncx.WithFairness(r.config.FairMutex))
	r.register("mutex", name, m)
	return m
}

// NewSemaphore creates a semaphore with permits permits.
func (r *Runtime) NewSemaphore(name string, permits int) *syncx.Semaphore {
	s := syncx.NewSemaphore(permits, syncx.WithLock(r.locks), syncx.WithFairness(r.config.FairSemaphore))
	r.register("semaphore", name, s)
	return s
}

// NewEvent creates a manual-reset event.
func (r *Runtime) NewEvent(name string, set bool) *syncx.ManualResetEvent {
	e := syncx.NewManualResetEvent(set, syncx.WithLock(r.locks))
	r.register("event", name, e)
	return e
}

// NewChannel creates a channel. capacity 0 selects the configured default;
// channel.Unbounded selects an unbounded buffer.
func NewChannel[T any](r *Runtime, name string, capacity int) *channel.Channel[T] {
	var ch *channel.Channel[T]
	switch {
	case capacity == channel.Unbounded:
		ch = channel.NewUnbounded[T](channel.WithLock(r.locks))
	case capacity == 0:
		ch = channel.NewBounded[T](r.config.DefaultChannelCapacity, channel.WithLock(r.locks))
	default:
		ch = channel.NewBounded[T](capacity, channel.WithLock(r.locks))
	}
	r.register("channel", name, ch)
	return ch
}

// NewStateBroadcast creates a latest-value broadcast channel.
func NewStateBroadcast[T any](r *Runtime, name string) *channel.StateBroadcast[T] {
	b := channel.NewStateBroadcast[T](channel.WithLock(r.locks))
	r.register("broadcast", name, b)
	return b
}

// NewOneshot creates a single-value channel. Oneshots are short-lived and
// get no debug probe.
func NewOneshot[T any](r *Runtime) *channel.Oneshot[T] {
	if r.config.EnableMetrics {
		r.control.AddMetric("oneshot.created", 1)
	}
	return channel.NewOneshot[T](channel.WithLock(r.locks))
}
