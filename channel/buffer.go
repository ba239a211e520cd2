// File: channel/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Message storage behind a Channel. Bounded channels use a deque whose
// length is capped by the channel; unbounded channels use a growable ring.

package channel

import (
	"github.com/eapache/queue"
	"github.com/gammazero/deque"
)

type buffer[T any] interface {
	push(v T)
	pop() T
	len() int
}

// boundedBuffer is a FIFO ring; the channel enforces the capacity.
type boundedBuffer[T any] struct {
	d deque.Deque[T]
}

func (b *boundedBuffer[T]) push(v T) { b.d.PushBack(v) }
func (b *boundedBuffer[T]) pop() T   { return b.d.PopFront() }
func (b *boundedBuffer[T]) len() int { return b.d.Len() }

// unboundedBuffer grows without limit.
type unboundedBuffer[T any] struct {
	q *queue.Queue
}

func newUnboundedBuffer[T any]() *unboundedBuffer[T] {
	return &unboundedBuffer[T]{q: queue.New()}
}

func (b *unboundedBuffer[T]) push(v T) { b.q.Add(v) }
func (b *unboundedBuffer[T]) len() int { return b.q.Length() }

func (b *unboundedBuffer[T]) pop() T {
	// comma-ok keeps nil interface values intact
	v, _ := b.q.Remove().(T)
	return v
}
