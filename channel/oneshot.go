// File: channel/oneshot.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package channel

import (
	"context"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
	"github.com/momentics/hioload-async/internal/waitq"
)

// Oneshot carries a single value to any number of receivers.
type Oneshot[T any] struct {
	mu api.RawLock

	// GUARDED_BY(mu)
	value   T
	filled  bool
	closed  bool
	waiters waitq.Queue[struct{}]
}

// NewOneshot creates an empty oneshot.
func NewOneshot[T any](opts ...Option) *Oneshot[T] {
	o := buildOptions(opts)
	return &Oneshot[T]{mu: o.newLock()}
}

// Send stores v and releases every receiver. Only the first Send succeeds;
// later sends and sends after Close return ErrClosed.
func (o *Oneshot[T]) Send(v T) error {
	var ws waitq.Wakers
	o.mu.Lock()
	if o.filled || o.closed {
		o.mu.Unlock()
		return api.ErrClosed
	}
	o.value = v
	o.filled = true
	o.waiters.WakeAll(waitq.Done, &ws)
	o.mu.Unlock()
	ws.Wake()
	return nil
}

// Close releases receivers of an empty oneshot with ErrClosed. A value that
// was already sent remains readable.
func (o *Oneshot[T]) Close() bool {
	var ws waitq.Wakers
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.closed = true
	o.waiters.WakeAll(waitq.Done, &ws)
	o.mu.Unlock()
	ws.Wake()
	return true
}

// ReceiveAsync returns a future resolving to the value.
func (o *Oneshot[T]) ReceiveAsync() *OneshotFuture[T] {
	return &OneshotFuture[T]{o: o}
}

// Receive parks the calling goroutine until a value is sent, the oneshot
// is closed, or ctx ends.
func (o *Oneshot[T]) Receive(ctx context.Context) (T, error) {
	return future.Await[T](ctx, o.ReceiveAsync())
}

// OneshotFuture is a pending Oneshot receive.
type OneshotFuture[T any] struct {
	o     *Oneshot[T]
	node  waitq.Node[struct{}]
	phase phase
}

var _ api.Future[int] = (*OneshotFuture[int])(nil)

// Poll resolves once the oneshot is filled or closed.
func (f *OneshotFuture[T]) Poll(w api.Waker) (api.Result[T], bool) {
	o := f.o
	o.mu.Lock()
	defer o.mu.Unlock()
	if f.phase != phasePending {
		return finishedResult[T](f.phase), true
	}
	if o.filled {
		o.waiters.Remove(&f.node)
		f.phase = phaseConsumed
		return api.Ok(o.value), true
	}
	if o.closed {
		o.waiters.Remove(&f.node)
		f.phase = phaseConsumed
		return api.Fail[T](api.ErrClosed), true
	}
	f.node.Register(w)
	if !f.node.Queued() {
		o.waiters.PushBack(&f.node)
	}
	return api.Result[T]{}, false
}

// Cancel removes the receiver.
func (f *OneshotFuture[T]) Cancel() {
	o := f.o
	o.mu.Lock()
	defer o.mu.Unlock()
	if f.phase != phasePending {
		return
	}
	f.phase = phaseCanceled
	o.waiters.Remove(&f.node)
}
