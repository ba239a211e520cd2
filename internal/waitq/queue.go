// File: internal/waitq/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Intrusive FIFO of suspended waiters shared by every primitive.
// The queue has no lock of its own: the owning primitive's RawLock guards
// every call, so no nested locking ever happens.

package waitq

import "github.com/momentics/hioload-async/api"

// State is the lifecycle position of a waiter node.
type State uint8

const (
	// Idle nodes are not queued and hold no outcome.
	Idle State = iota
	// Queued nodes are linked into a queue and waiting.
	Queued
	// Notified nodes were woken to retry; they are no longer queued.
	Notified
	// Done nodes were granted their outcome by the primitive.
	Done
)

// Node is one pending operation. Value carries per-operation payload such
// as a requested permit count or a parked message.
type Node[T any] struct {
	prev, next *Node[T]
	owner      *Queue[T]
	waker      api.Waker
	state      State
	Value      T
}

// State returns the node state.
func (n *Node[T]) State() State { return n.state }

// SetState moves the node into s. Used by primitives when granting.
func (n *Node[T]) SetState(s State) { n.state = s }

// Queued reports whether the node is linked into a queue.
func (n *Node[T]) Queued() bool { return n.owner != nil }

// Register stores w as the waker for the current registration, replacing
// any earlier one.
func (n *Node[T]) Register(w api.Waker) { n.waker = w }

// TakeWaker returns the registered waker and clears it, so each
// registration is woken at most once.
func (n *Node[T]) TakeWaker() api.Waker {
	w := n.waker
	n.waker = nil
	return w
}

// Queue is a doubly linked FIFO of nodes.
type Queue[T any] struct {
	head, tail *Node[T]
	n          int
}

// Len returns number of queued nodes.
func (q *Queue[T]) Len() int { return q.n }

// Empty reports whether no node is queued.
func (q *Queue[T]) Empty() bool { return q.n == 0 }

// Front returns the oldest node, nil when empty.
func (q *Queue[T]) Front() *Node[T] { return q.head }

// PushBack enqueues n at the tail. The returned node is the removal token.
func (q *Queue[T]) PushBack(n *Node[T]) *Node[T] {
	q.mustDetached(n)
	n.owner = q
	n.state = Queued
	n.prev = q.tail
	n.next = nil
	if q.tail != nil {
		q.tail.next = n
	} else {
		q.head = n
	}
	q.tail = n
	q.n++
	return n
}

// PushFront enqueues n at the head. Used to restore the position of a
// waiter that was notified but lost the race for the resource.
func (q *Queue[T]) PushFront(n *Node[T]) *Node[T] {
	q.mustDetached(n)
	n.owner = q
	n.state = Queued
	n.prev = nil
	n.next = q.head
	if q.head != nil {
		q.head.prev = n
	} else {
		q.tail = n
	}
	q.head = n
	q.n++
	return n
}

// Remove unlinks n. It returns true if n was still queued here, false if
// it had already been woken or removed.
func (q *Queue[T]) Remove(n *Node[T]) bool {
	if n == nil || n.owner != q {
		return false
	}
	q.unlink(n)
	n.state = Idle
	n.waker = nil
	return true
}

// PopFront unlinks and returns the oldest node without changing its state
// beyond detaching it; nil when empty.
func (q *Queue[T]) PopFront() *Node[T] {
	n := q.head
	if n == nil {
		return nil
	}
	q.unlink(n)
	return n
}

// Each visits queued nodes oldest first until fn returns false. fn must
// not mutate the queue except by removing the node it was handed.
func (q *Queue[T]) Each(fn func(n *Node[T]) bool) {
	for n := q.head; n != nil; {
		next := n.next
		if !fn(n) {
			return
		}
		n = next
	}
}

// WakeOne pops the oldest node, marks it Notified and collects its waker.
// Returns the node, or nil when the queue was empty.
func (q *Queue[T]) WakeOne(ws *Wakers) *Node[T] {
	n := q.PopFront()
	if n == nil {
		return nil
	}
	n.state = Notified
	ws.Add(n.TakeWaker())
	return n
}

// WakeAll pops every node, marking each with state s, and collects wakers.
func (q *Queue[T]) WakeAll(s State, ws *Wakers) int {
	count := 0
	for n := q.PopFront(); n != nil; n = q.PopFront() {
		n.state = s
		ws.Add(n.TakeWaker())
		count++
	}
	return count
}

func (q *Queue[T]) unlink(n *Node[T]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		q.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		q.tail = n.prev
	}
	n.prev, n.next, n.owner = nil, nil, nil
	q.n--
}

func (q *Queue[T]) mustDetached(n *Node[T]) {
	if n.owner != nil {
		panic("waitq: node is already queued")
	}
}
