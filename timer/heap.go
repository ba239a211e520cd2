// File: timer/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import "github.com/momentics/hioload-async/api"

type entry struct {
	deadline int64
	seq      uint64 // FIFO among equal deadlines
	index    int    // heap position, -1 when not registered
	fired    bool

	waker api.Waker // futures
	fn    func()    // scheduled callbacks
}

// entryHeap implements heap.Interface ordered by (deadline, seq).
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
