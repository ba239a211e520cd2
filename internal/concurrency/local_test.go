// File: internal/concurrency/local_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/channel"
	"github.com/momentics/hioload-async/syncx"
)

func TestLocalExecutor_ChannelPingPong(t *testing.T) {
	const n = 100
	ex := NewLocalExecutor(4, 8)
	ch := channel.NewBounded[int](1)

	sent := 0
	var sendFut *channel.SendFuture[int]
	producer := func(w api.Waker) bool {
		for sent < n {
			if sendFut == nil {
				sendFut = ch.SendAsync(sent)
			}
			r, ok := sendFut.Poll(w)
			if !ok {
				return false
			}
			if r.Err != nil {
				t.Errorf("send: %v", r.Err)
				return true
			}
			sendFut = nil
			sent++
		}
		ch.Close()
		return true
	}

	var got []int
	var recvFut *channel.ReceiveFuture[int]
	consumer := func(w api.Waker) bool {
		for {
			if recvFut == nil {
				recvFut = ch.ReceiveAsync()
			}
			r, ok := recvFut.Poll(w)
			if !ok {
				return false
			}
			recvFut = nil
			if r.Err != nil {
				if !errors.Is(r.Err, api.ErrClosed) {
					t.Errorf("receive: %v", r.Err)
				}
				return true
			}
			got = append(got, r.Value)
		}
	}

	if err := ex.Spawn(consumer); err != nil {
		t.Fatal(err)
	}
	if err := ex.Spawn(producer); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ex.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != n {
		t.Fatalf("received %d messages, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("message %d = %d", i, v)
		}
	}
	if ex.Pending() != 0 {
		t.Fatalf("pending = %d", ex.Pending())
	}
}

func TestLocalExecutor_RunUntilIdleLeavesBlockedTasks(t *testing.T) {
	ex := NewLocalExecutor(0, 0)
	ev := syncx.NewManualResetEvent(false)
	fut := ev.WaitAsync()
	finished := false
	_ = ex.Spawn(func(w api.Waker) bool {
		if _, ok := fut.Poll(w); !ok {
			return false
		}
		finished = true
		return true
	})
	if n := ex.RunUntilIdle(); n != 1 {
		t.Fatalf("polls = %d, want 1", n)
	}
	if finished || ex.Pending() != 1 {
		t.Fatal("task should still be blocked")
	}
	ev.Set()
	ex.RunUntilIdle()
	if !finished || ex.Pending() != 0 {
		t.Fatal("task should have finished after Set")
	}
}

func TestBlockOn_Mutex(t *testing.T) {
	ex := NewLocalExecutor(0, 0)
	m := syncx.NewMutex()
	held, ok := m.TryLock()
	if !ok {
		t.Fatal("TryLock failed")
	}
	_ = ex.Spawn(func(api.Waker) bool {
		held.Unlock()
		return true
	})
	g, err := BlockOn[*syncx.MutexGuard](context.Background(), ex, m.LockAsync())
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsLocked() {
		t.Fatal("mutex should be held by the guard")
	}
	g.Unlock()
}

func TestBlockOn_ContextCancel(t *testing.T) {
	ex := NewLocalExecutor(0, 0)
	ev := syncx.NewManualResetEvent(false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := BlockOn[struct{}](ctx, ex, ev.WaitAsync())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if ex.Pending() != 0 {
		t.Fatalf("canceled task still live: %d", ex.Pending())
	}
	if ev.Stats().Waiters != 0 {
		t.Fatalf("waiter not removed")
	}
}

func TestLocalExecutor_Closed(t *testing.T) {
	ex := NewLocalExecutor(0, 0)
	ex.Close()
	if err := ex.Spawn(func(api.Waker) bool { return true }); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("err = %v", err)
	}
	if err := NewLocalExecutor(0, 0).Spawn(nil); !errors.Is(err, ErrNilTask) {
		t.Fatalf("err = %v", err)
	}
}
