// File: internal/concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks across worker goroutines. Each worker owns an
// MPMC ring; tasks that do not fit spill into a shared deque. Idle workers
// steal from their siblings before parking.

package concurrency

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"

	"github.com/momentics/hioload-async/affinity"
	"github.com/momentics/hioload-async/api"
)

var (
	_ api.Executor = (*Executor)(nil)
	_ api.Spawner  = (*Executor)(nil)
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// Options configures an Executor.
type Options struct {
	// NumWorkers defaults to runtime.NumCPU() when <= 0.
	NumWorkers int
	// QueueSize is the per-worker ring capacity, rounded up to a power of two.
	QueueSize int
	// Pin locks each worker to an OS thread bound to one CPU.
	Pin bool
}

// Executor manages a pool of worker goroutines.
type Executor struct {
	mu        sync.RWMutex // guards workers; Submit holds it shared
	workers   []*worker
	queueSize uint64
	pin       bool
	nextID    int

	globalMu     sync.Mutex
	global       deque.Deque[TaskFunc]
	globalSignal chan struct{}

	closed     atomic.Bool
	numWorkers atomic.Int32
	rr         atomic.Uint64

	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	panics         atomic.Int64
	steals         atomic.Int64
}

// NewExecutor creates and starts an Executor.
func NewExecutor(opts Options) *Executor {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = runtime.NumCPU()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	e := &Executor{
		queueSize:    uint64(nextPowerOfTwo(uint32(opts.QueueSize))),
		pin:          opts.Pin,
		globalSignal: make(chan struct{}, 1),
	}
	e.mu.Lock()
	e.grow(opts.NumWorkers)
	e.mu.Unlock()
	return e
}

// grow starts n workers. Caller holds mu.
func (e *Executor) grow(n int) {
	for i := 0; i < n; i++ {
		w := &worker{
			id:     e.nextID,
			exec:   e,
			local:  NewRingBuffer[TaskFunc](e.queueSize),
			notify: make(chan struct{}, 1),
			stopCh: make(chan struct{}),
		}
		e.nextID++
		e.workers = append(e.workers, w)
		go w.run()
	}
	e.numWorkers.Store(int32(len(e.workers)))
}

// Submit enqueues a task for execution.
func (e *Executor) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.workers) == 0 {
		return ErrExecutorClosed
	}
	e.totalTasks.Add(1)
	w := e.workers[e.rr.Add(1)%uint64(len(e.workers))]
	if w.local.Enqueue(task) {
		w.wake()
		return nil
	}
	e.pushGlobal(task)
	return nil
}

// Spawn runs a poll task on the pool. Every wake resubmits it; a task is
// never polled by two workers at once.
func (e *Executor) Spawn(task api.PollTask) error {
	if task == nil {
		return ErrNilTask
	}
	t := newPollTask(task, e.schedulePoll)
	return e.Submit(func() { t.step() })
}

func (e *Executor) schedulePoll(t *pollTask) {
	if err := e.Submit(func() { t.step() }); err != nil {
		log.Printf("[executor] dropping woken task: %v", err)
	}
}

func (e *Executor) pushGlobal(task TaskFunc) {
	e.globalMu.Lock()
	e.global.PushBack(task)
	e.globalMu.Unlock()
	e.signalGlobal()
}

func (e *Executor) signalGlobal() {
	select {
	case e.globalSignal <- struct{}{}:
	default:
	}
}

func (e *Executor) popGlobal() (TaskFunc, bool) {
	e.globalMu.Lock()
	if e.global.Len() == 0 {
		e.globalMu.Unlock()
		return nil, false
	}
	task := e.global.PopFront()
	more := e.global.Len() > 0
	e.globalMu.Unlock()
	if more {
		// pass the signal on so another parked worker picks up the rest
		e.signalGlobal()
	}
	return task, true
}

func (e *Executor) steal(self *worker) (TaskFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, w := range e.workers {
		if w == self {
			continue
		}
		if task, ok := w.local.Dequeue(); ok {
			e.steals.Add(1)
			return task, true
		}
	}
	return nil, false
}

// NumWorkers returns the current number of active workers.
func (e *Executor) NumWorkers() int {
	return int(e.numWorkers.Load())
}

// Resize adjusts the worker count. Counts below one are clamped to one.
// Tasks queued on removed workers move to the shared queue.
func (e *Executor) Resize(newCount int) {
	if newCount < 1 {
		newCount = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return
	}
	cur := len(e.workers)
	switch {
	case newCount > cur:
		e.grow(newCount - cur)
	case newCount < cur:
		for _, w := range e.workers[newCount:] {
			close(w.stopCh)
		}
		clear(e.workers[newCount:])
		e.workers = e.workers[:newCount]
		e.numWorkers.Store(int32(newCount))
	}
	log.Printf("[executor] resized %d -> %d workers", cur, newCount)
}

// Close stops all workers. Queued tasks that have not started are dropped.
func (e *Executor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, w := range e.workers {
		close(w.stopCh)
	}
	e.workers = nil
	e.numWorkers.Store(0)
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	total := e.totalTasks.Load()
	completed := e.completedTasks.Load()
	return map[string]int64{
		"total_tasks":     total,
		"completed_tasks": completed,
		"pending_tasks":   total - completed,
		"panics":          e.panics.Load(),
		"steals":          e.steals.Load(),
		"num_workers":     int64(e.NumWorkers()),
	}
}

// worker represents a single executor goroutine.
type worker struct {
	id     int
	exec   *Executor
	local  *RingBuffer[TaskFunc]
	notify chan struct{}
	stopCh chan struct{}
}

func (w *worker) wake() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *worker) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *worker) run() {
	if w.exec.pin {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := affinity.SetAffinity(affinity.CPUFor(w.id)); err != nil {
			log.Printf("[executor] pin worker %d: %v", w.id, err)
		}
	}
	for {
		if w.stopped() {
			w.drain()
			return
		}
		if task, ok := w.local.Dequeue(); ok {
			w.execute(task)
			continue
		}
		if task, ok := w.exec.popGlobal(); ok {
			w.execute(task)
			continue
		}
		if task, ok := w.exec.steal(w); ok {
			w.execute(task)
			continue
		}
		select {
		case <-w.notify:
		case <-w.exec.globalSignal:
		case <-w.stopCh:
			w.drain()
			return
		}
	}
}

// drain hands tasks left on a stopped worker to the shared queue.
func (w *worker) drain() {
	if w.exec.closed.Load() {
		return
	}
	for {
		task, ok := w.local.Dequeue()
		if !ok {
			return
		}
		w.exec.pushGlobal(task)
	}
}

// execute runs the task and updates statistics, recovering from panics.
func (w *worker) execute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			w.exec.panics.Add(1)
			log.Printf("[executor] worker %d recovered panic: %v", w.id, r)
		}
		w.exec.completedTasks.Add(1)
	}()
	task()
}
