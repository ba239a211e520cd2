package syncx_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-async/syncx"
)

func TestEvent_SetWakesAllQueued(t *testing.T) {
	e := syncx.NewManualResetEvent(false)
	ws := make([]countWaker, 4)
	fs := make([]*syncx.WaitFuture, 4)
	for i := range fs {
		fs[i] = e.WaitAsync()
		mustPending[struct{}](t, fs[i], &ws[i])
	}
	e.Set()
	for i := range fs {
		if ws[i].Count() != 1 {
			t.Fatalf("waiter %d woken %d times, want 1", i, ws[i].Count())
		}
		mustReady[struct{}](t, fs[i], &ws[i])
	}
}

func TestEvent_SetIsLevelTriggered(t *testing.T) {
	e := syncx.NewManualResetEvent(true)
	var w countWaker
	mustReady[struct{}](t, e.WaitAsync(), &w)
	if err := e.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestEvent_ResetDoesNotUnwake(t *testing.T) {
	e := syncx.NewManualResetEvent(false)
	var w countWaker
	f := e.WaitAsync()
	mustPending[struct{}](t, f, &w)
	e.Set()
	e.Reset()
	mustReady[struct{}](t, f, &w)

	var w2 countWaker
	mustPending[struct{}](t, e.WaitAsync(), &w2)
}

func TestEvent_WaitAfterResetSuspends(t *testing.T) {
	e := syncx.NewManualResetEvent(true)
	e.Reset()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := e.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err = %v, want DeadlineExceeded", err)
	}
	if st := e.Stats(); st.Waiters != 0 {
		t.Fatalf("timed-out waiter left queued: %+v", st)
	}
}

func TestEvent_GoroutinesReleased(t *testing.T) {
	e := syncx.NewManualResetEvent(false)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Wait(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(5 * time.Millisecond)
	e.Set()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout: waiters not released by Set")
	}
}
