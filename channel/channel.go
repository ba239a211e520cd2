// File: channel/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Multi-producer/multi-consumer channel with work-queue delivery.
//
// A sender that finds the channel full parks its message in its own waiter
// node. A receive that frees a slot moves the oldest parked message into the
// buffer, so messages enter the buffer in send order and no parked message
// is ever observed twice. Receivers are notified, not handed values: a
// notified receiver re-checks the buffer on its next poll, and passes the
// notification on if it is cancelled instead.

package channel

import (
	"context"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/future"
	"github.com/momentics/hioload-async/internal/waitq"
)

// Unbounded is the Cap of a channel without a capacity limit.
const Unbounded = -1

// Channel is a FIFO message queue. Each message is delivered to exactly
// one receiver.
type Channel[T any] struct {
	mu       api.RawLock
	capacity int

	// GUARDED_BY(mu)
	buf       buffer[T]
	closed    bool
	senders   waitq.Queue[T]
	receivers waitq.Queue[struct{}]
}

// Stats is a point-in-time view of a Channel.
type Stats struct {
	Len       int
	Cap       int
	Closed    bool
	Senders   int
	Receivers int
}

// NewBounded creates a channel holding at most capacity buffered messages.
// A capacity below 1 is treated as 1.
func NewBounded[T any](capacity int, opts ...Option) *Channel[T] {
	if capacity < 1 {
		capacity = 1
	}
	o := buildOptions(opts)
	return &Channel[T]{
		mu:       o.newLock(),
		capacity: capacity,
		buf:      &boundedBuffer[T]{},
	}
}

// NewUnbounded creates a channel whose sends never suspend.
func NewUnbounded[T any](opts ...Option) *Channel[T] {
	o := buildOptions(opts)
	return &Channel[T]{
		mu:       o.newLock(),
		capacity: Unbounded,
		buf:      newUnboundedBuffer[T](),
	}
}

// Cap returns the capacity, or Unbounded.
func (c *Channel[T]) Cap() int { return c.capacity }

// Len returns the number of buffered messages.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.len()
}

// IsClosed reports whether Close was called.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Stats returns a snapshot of the channel state.
func (c *Channel[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       c.buf.len(),
		Cap:       c.capacity,
		Closed:    c.closed,
		Senders:   c.senders.Len(),
		Receivers: c.receivers.Len(),
	}
}

// StatsSnapshot implements api.StatsProvider.
func (c *Channel[T]) StatsSnapshot() any { return c.Stats() }

// Close stops the channel. Parked and future sends fail with ErrClosed;
// receivers drain what is buffered and then get ErrClosed. Returns true on
// the first call.
func (c *Channel[T]) Close() bool {
	var ws waitq.Wakers
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.senders.WakeAll(waitq.Notified, &ws)
	c.receivers.WakeAll(waitq.Notified, &ws)
	c.mu.Unlock()
	ws.Wake()
	return true
}

func (c *Channel[T]) fullLocked() bool {
	return c.capacity != Unbounded && c.buf.len() >= c.capacity
}

// pushLocked buffers v and notifies one waiting receiver.
func (c *Channel[T]) pushLocked(v T, ws *waitq.Wakers) {
	c.buf.push(v)
	c.receivers.WakeOne(ws)
}

// popLocked takes the oldest message and refills the freed slot from the
// oldest parked sender.
func (c *Channel[T]) popLocked(ws *waitq.Wakers) T {
	v := c.buf.pop()
	if n := c.senders.PopFront(); n != nil {
		c.buf.push(n.Value)
		var zero T
		n.Value = zero
		n.SetState(waitq.Done)
		ws.Add(n.TakeWaker())
	}
	return v
}

// TrySend buffers v if there is room and no sender is parked ahead of it.
func (c *Channel[T]) TrySend(v T) error {
	var ws waitq.Wakers
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return api.ErrClosed
	}
	if !c.senders.Empty() || c.fullLocked() {
		c.mu.Unlock()
		return api.ErrWouldBlock
	}
	c.pushLocked(v, &ws)
	c.mu.Unlock()
	ws.Wake()
	return nil
}

// SendAsync returns a future that completes once v is buffered.
func (c *Channel[T]) SendAsync(v T) *SendFuture[T] {
	return &SendFuture[T]{c: c, v: v}
}

// Send parks the calling goroutine until v is buffered, the channel is
// closed, or ctx ends.
func (c *Channel[T]) Send(ctx context.Context, v T) error {
	_, err := future.Await[struct{}](ctx, c.SendAsync(v))
	return err
}

// TryReceive takes the oldest message if one is buffered.
func (c *Channel[T]) TryReceive() (T, error) {
	var ws waitq.Wakers
	var zero T
	c.mu.Lock()
	if c.buf.len() == 0 {
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return zero, api.ErrClosed
		}
		return zero, api.ErrWouldBlock
	}
	v := c.popLocked(&ws)
	c.mu.Unlock()
	ws.Wake()
	return v, nil
}

// ReceiveAsync returns a future that resolves to the next message.
func (c *Channel[T]) ReceiveAsync() *ReceiveFuture[T] {
	return &ReceiveFuture[T]{c: c}
}

// Receive parks the calling goroutine until a message arrives, the channel
// is closed and drained, or ctx ends.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	return future.Await[T](ctx, c.ReceiveAsync())
}

// SendFuture is a pending send.
type SendFuture[T any] struct {
	c     *Channel[T]
	v     T
	node  waitq.Node[T]
	phase phase
}

var _ api.Future[struct{}] = (*SendFuture[int])(nil)

// Poll buffers the message or parks it, registering w while parked.
func (f *SendFuture[T]) Poll(w api.Waker) (api.Result[struct{}], bool) {
	var ws waitq.Wakers
	c := f.c
	c.mu.Lock()
	r, ok := f.pollLocked(w, &ws)
	c.mu.Unlock()
	ws.Wake()
	return r, ok
}

func (f *SendFuture[T]) pollLocked(w api.Waker, ws *waitq.Wakers) (api.Result[struct{}], bool) {
	c := f.c
	if f.phase != phasePending {
		return finishedResult[struct{}](f.phase), true
	}
	switch f.node.State() {
	case waitq.Done:
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(struct{}{}), true
	case waitq.Queued:
		f.node.Register(w)
		return api.Result[struct{}]{}, false
	}
	if c.closed {
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Fail[struct{}](api.ErrClosed), true
	}
	if c.senders.Empty() && !c.fullLocked() {
		c.pushLocked(f.v, ws)
		f.phase = phaseConsumed
		return api.Ok(struct{}{}), true
	}
	f.node.Value = f.v
	f.node.Register(w)
	c.senders.PushBack(&f.node)
	return api.Result[struct{}]{}, false
}

// Cancel withdraws a parked message. A message that already entered the
// buffer stays there: that send has succeeded.
func (f *SendFuture[T]) Cancel() {
	c := f.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.phase != phasePending {
		return
	}
	f.phase = phaseCanceled
	if c.senders.Remove(&f.node) {
		var zero T
		f.node.Value = zero
	}
	f.node.SetState(waitq.Idle)
}

// ReceiveFuture is a pending receive.
type ReceiveFuture[T any] struct {
	c     *Channel[T]
	node  waitq.Node[struct{}]
	phase phase
}

var _ api.Future[int] = (*ReceiveFuture[int])(nil)

// Poll takes the oldest message, or registers w until one arrives.
func (f *ReceiveFuture[T]) Poll(w api.Waker) (api.Result[T], bool) {
	var ws waitq.Wakers
	c := f.c
	c.mu.Lock()
	r, ok := f.pollLocked(w, &ws)
	c.mu.Unlock()
	ws.Wake()
	return r, ok
}

func (f *ReceiveFuture[T]) pollLocked(w api.Waker, ws *waitq.Wakers) (api.Result[T], bool) {
	c := f.c
	if f.phase != phasePending {
		return finishedResult[T](f.phase), true
	}
	if f.node.State() == waitq.Queued {
		f.node.Register(w)
		return api.Result[T]{}, false
	}
	if c.buf.len() > 0 {
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Ok(c.popLocked(ws)), true
	}
	if c.closed {
		f.phase = phaseConsumed
		f.node.SetState(waitq.Idle)
		return api.Fail[T](api.ErrClosed), true
	}
	f.node.Register(w)
	if f.node.State() == waitq.Notified {
		c.receivers.PushFront(&f.node)
	} else {
		c.receivers.PushBack(&f.node)
	}
	return api.Result[T]{}, false
}

// Cancel removes the receiver. A notification it had not acted on is
// passed to the next receiver so no buffered message is stranded.
func (f *ReceiveFuture[T]) Cancel() {
	var ws waitq.Wakers
	c := f.c
	c.mu.Lock()
	if f.phase != phasePending {
		c.mu.Unlock()
		return
	}
	f.phase = phaseCanceled
	switch f.node.State() {
	case waitq.Queued:
		c.receivers.Remove(&f.node)
	case waitq.Notified:
		if c.buf.len() > 0 {
			c.receivers.WakeOne(&ws)
		}
	}
	f.node.SetState(waitq.Idle)
	c.mu.Unlock()
	ws.Wake()
}
