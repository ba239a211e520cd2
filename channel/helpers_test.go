package channel_test

import (
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-async/api"
)

type countWaker struct {
	n atomic.Int32
}

func (w *countWaker) Wake()      { w.n.Add(1) }
func (w *countWaker) Count() int { return int(w.n.Load()) }

func mustPending[T any](t *testing.T, f api.Future[T], w api.Waker) {
	t.Helper()
	if r, ok := f.Poll(w); ok {
		t.Fatalf("expected pending, got ready %+v", r)
	}
}

func mustReady[T any](t *testing.T, f api.Future[T], w api.Waker) T {
	t.Helper()
	r, ok := f.Poll(w)
	if !ok {
		t.Fatal("expected ready, got pending")
	}
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	return r.Value
}
