package waitq

import (
	"testing"

	"github.com/momentics/hioload-async/api"
)

func countingWaker(n *int) api.Waker {
	return api.WakerFunc(func() { *n++ })
}

func TestQueue_FIFOAndRemove(t *testing.T) {
	var q Queue[int]
	nodes := make([]*Node[int], 4)
	for i := range nodes {
		nodes[i] = &Node[int]{Value: i}
		q.PushBack(nodes[i])
	}
	if q.Len() != 4 {
		t.Fatalf("Len = %d, want 4", q.Len())
	}
	if !q.Remove(nodes[1]) {
		t.Fatal("Remove of queued node returned false")
	}
	if q.Remove(nodes[1]) {
		t.Fatal("second Remove returned true")
	}
	var got []int
	for n := q.PopFront(); n != nil; n = q.PopFront() {
		got = append(got, n.Value)
	}
	want := []int{0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if !q.Empty() || q.Front() != nil {
		t.Fatal("queue not empty after draining")
	}
}

func TestQueue_PushFrontRestoresHead(t *testing.T) {
	var q Queue[string]
	a, b := &Node[string]{Value: "a"}, &Node[string]{Value: "b"}
	q.PushBack(b)
	q.PushFront(a)
	if q.Front() != a {
		t.Fatal("PushFront did not place node at head")
	}
}

func TestQueue_WakeOnceSemantics(t *testing.T) {
	var q Queue[int]
	var woken int
	n := &Node[int]{}
	n.Register(countingWaker(&woken))
	q.PushBack(n)

	var ws Wakers
	if q.WakeOne(&ws) != n {
		t.Fatal("WakeOne returned wrong node")
	}
	if n.State() != Notified {
		t.Fatalf("state = %v, want Notified", n.State())
	}
	ws.Wake()
	ws.Wake()
	if woken != 1 {
		t.Fatalf("woken %d times, want 1", woken)
	}
	if q.Remove(n) {
		t.Fatal("Remove after wake must report false")
	}
	if q.WakeOne(&ws) != nil {
		t.Fatal("WakeOne on empty queue returned a node")
	}
}

func TestQueue_WakeAll(t *testing.T) {
	var q Queue[int]
	var woken int
	for i := 0; i < 5; i++ {
		n := &Node[int]{}
		n.Register(countingWaker(&woken))
		q.PushBack(n)
	}
	var ws Wakers
	if got := q.WakeAll(Done, &ws); got != 5 {
		t.Fatalf("WakeAll = %d, want 5", got)
	}
	if ws.Len() != 5 {
		t.Fatalf("collected %d wakers, want 5", ws.Len())
	}
	ws.Wake()
	if woken != 5 {
		t.Fatalf("woken = %d, want 5", woken)
	}
}

func TestQueue_DoubleEnqueuePanics(t *testing.T) {
	var q Queue[int]
	n := &Node[int]{}
	q.PushBack(n)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double enqueue")
		}
	}()
	q.PushBack(n)
}

func TestQueue_RemoveFromOtherQueue(t *testing.T) {
	var q1, q2 Queue[int]
	n := &Node[int]{}
	q1.PushBack(n)
	if q2.Remove(n) {
		t.Fatal("Remove from foreign queue returned true")
	}
	if q1.Len() != 1 {
		t.Fatal("foreign Remove corrupted owner queue")
	}
}
