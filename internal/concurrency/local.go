// File: internal/concurrency/local.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// LocalExecutor drives poll tasks on the calling goroutine. Woken tasks are
// posted to an MPMC ring, so wakers may fire from any goroutine; only the
// goroutine inside Run or RunUntilIdle ever polls.

package concurrency

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-async/api"
)

var _ api.Spawner = (*LocalExecutor)(nil)

// LocalExecutor is a single-threaded cooperative executor.
type LocalExecutor struct {
	ready     *RingBuffer[*pollTask]
	mu        sync.Mutex
	overflow  []*pollTask // used when the ring is full
	signal    chan struct{}
	batchSize int
	closed    atomic.Bool

	live      atomic.Int64
	spawned   atomic.Int64
	completed atomic.Int64
	polls     atomic.Int64
}

// NewLocalExecutor creates a LocalExecutor. queueSize is rounded up to a
// power of two.
func NewLocalExecutor(batchSize, queueSize int) *LocalExecutor {
	if batchSize <= 0 {
		batchSize = 16
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	size := nextPowerOfTwo(uint32(queueSize))
	return &LocalExecutor{
		ready:     NewRingBuffer[*pollTask](uint64(size)),
		signal:    make(chan struct{}, 1),
		batchSize: batchSize,
	}
}

// Spawn registers a task; it is first polled by the next Run or RunUntilIdle.
func (e *LocalExecutor) Spawn(task api.PollTask) error {
	if task == nil {
		return ErrNilTask
	}
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.live.Add(1)
	e.spawned.Add(1)
	e.schedule(newPollTask(task, e.schedule))
	return nil
}

// Pending returns the number of spawned tasks that have not finished.
func (e *LocalExecutor) Pending() int {
	return int(e.live.Load())
}

// Close rejects further Spawn calls. Tasks already spawned can still be run.
func (e *LocalExecutor) Close() {
	e.closed.Store(true)
}

// Stats returns basic executor metrics.
func (e *LocalExecutor) Stats() map[string]int64 {
	return map[string]int64{
		"spawned_tasks":   e.spawned.Load(),
		"completed_tasks": e.completed.Load(),
		"live_tasks":      e.live.Load(),
		"polls":           e.polls.Load(),
	}
}

func (e *LocalExecutor) schedule(t *pollTask) {
	if !e.ready.Enqueue(t) {
		e.mu.Lock()
		e.overflow = append(e.overflow, t)
		e.mu.Unlock()
	}
	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *LocalExecutor) next() (*pollTask, bool) {
	if t, ok := e.ready.Dequeue(); ok {
		return t, true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.overflow) == 0 {
		return nil, false
	}
	t := e.overflow[0]
	e.overflow[0] = nil
	e.overflow = e.overflow[1:]
	return t, true
}

// RunUntilIdle polls ready tasks until none are ready and returns the
// number of polls performed. Tasks still waiting on a waker stay live.
func (e *LocalExecutor) RunUntilIdle() int {
	total := 0
	for {
		n := e.processBatch()
		total += n
		if n == 0 {
			return total
		}
	}
}

func (e *LocalExecutor) processBatch() int {
	count := 0
	for count < e.batchSize {
		t, ok := e.next()
		if !ok {
			break
		}
		count++
		e.polls.Add(1)
		if t.step() {
			e.live.Add(-1)
			e.completed.Add(1)
		}
	}
	return count
}

// Run polls tasks until every spawned task has finished or ctx ends.
func (e *LocalExecutor) Run(ctx context.Context) error {
	for {
		if e.processBatch() > 0 {
			// let wakers on other goroutines make progress between batches
			runtime.Gosched()
			continue
		}
		if e.live.Load() == 0 {
			return nil
		}
		select {
		case <-e.signal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// BlockOn spawns fut as a task and runs the executor until it completes.
// Other spawned tasks are driven as well. If ctx ends first, fut is
// canceled and its task retired.
func BlockOn[T any](ctx context.Context, e *LocalExecutor, fut api.Future[T]) (T, error) {
	var (
		res      api.Result[T]
		done     bool
		canceled bool
		waker    api.Waker
	)
	err := e.Spawn(func(w api.Waker) bool {
		if canceled {
			return true
		}
		waker = w
		res, done = fut.Poll(w)
		return done
	})
	if err != nil {
		var zero T
		return zero, err
	}
	for !done {
		if e.processBatch() > 0 {
			continue
		}
		select {
		case <-e.signal:
		case <-ctx.Done():
			fut.Cancel()
			canceled = true
			if waker != nil {
				waker.Wake()
			}
			e.RunUntilIdle()
			var zero T
			return zero, ctx.Err()
		}
	}
	return res.Value, res.Err
}
