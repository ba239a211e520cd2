package syncx_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/syncx"
)

func TestSemaphore_TryAcquireAndRelease(t *testing.T) {
	s := syncx.NewSemaphore(3)
	p, err := s.TryAcquire(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.TryAcquire(2); !errors.Is(err, api.ErrWouldBlock) {
		t.Fatalf("err = %v, want ErrWouldBlock", err)
	}
	p.Release()
	p.Release()
	if s.Available() != 3 {
		t.Fatalf("available = %d, want 3", s.Available())
	}
}

func TestSemaphore_RequestLargerThanTotal(t *testing.T) {
	s := syncx.NewSemaphore(2)
	if _, err := s.TryAcquire(3); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	r, ok := s.AcquireAsync(3).Poll(api.NoopWaker)
	if !ok || !errors.Is(r.Err, api.ErrInvalidArgument) {
		t.Fatalf("poll = %+v, %v", r, ok)
	}
}

func TestSemaphore_ReleaseOverflowIsInvariantViolation(t *testing.T) {
	s := syncx.NewSemaphore(2)
	err := s.Release(1)
	if !errors.Is(err, api.ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
	if s.Available() != 2 {
		t.Fatalf("overflowing release changed available to %d", s.Available())
	}
}

func TestSemaphore_AtomicMultiPermitFIFO(t *testing.T) {
	s := syncx.NewSemaphore(5)
	held, _ := s.TryAcquire(4)

	var wBig, wSmall countWaker
	big := s.AcquireAsync(3)
	small := s.AcquireAsync(1)
	mustPending[*syncx.Permit](t, big, &wBig)
	// one permit is free, but the small request may not jump the queue
	mustPending[*syncx.Permit](t, small, &wSmall)
	if s.Available() != 1 {
		t.Fatalf("waiting request consumed permits: available=%d", s.Available())
	}

	held.Release()
	pBig := mustReady[*syncx.Permit](t, big, &wBig)
	pSmall := mustReady[*syncx.Permit](t, small, &wSmall)
	if s.Available() != 1 {
		t.Fatalf("available = %d, want 1", s.Available())
	}
	pBig.Release()
	pSmall.Release()
	if s.Available() != 5 {
		t.Fatalf("available = %d, want 5", s.Available())
	}
}

func TestSemaphore_HeadBlocksSmallerInFairMode(t *testing.T) {
	s := syncx.NewSemaphore(5)
	held, _ := s.TryAcquire(3)
	var wBig, wSmall countWaker
	big, small := s.AcquireAsync(4), s.AcquireAsync(1)
	mustPending[*syncx.Permit](t, big, &wBig)
	mustPending[*syncx.Permit](t, small, &wSmall)

	if _, err := s.TryAcquire(1); !errors.Is(err, api.ErrWouldBlock) {
		t.Fatalf("TryAcquire jumped the queue: %v", err)
	}
	if wSmall.Count() != 0 {
		t.Fatal("small request granted ahead of the head")
	}

	// cancelling the head lets the smaller request through
	big.Cancel()
	if wSmall.Count() != 1 {
		t.Fatal("small request not granted after head cancelled")
	}
	mustReady[*syncx.Permit](t, small, &wSmall).Release()
	held.Release()
	if s.Available() != 5 {
		t.Fatalf("available = %d, want 5", s.Available())
	}
}

func TestSemaphore_UnfairGrantsWhatFits(t *testing.T) {
	s := syncx.NewSemaphore(5, syncx.WithFairness(false))
	held, _ := s.TryAcquire(4)
	var wBig, wSmall countWaker
	big, small := s.AcquireAsync(4), s.AcquireAsync(1)
	mustPending[*syncx.Permit](t, big, &wBig)
	// unfair mode takes the free permit immediately
	p := mustReady[*syncx.Permit](t, small, &wSmall)
	p.Release()
	if wBig.Count() != 0 {
		t.Fatal("big request granted without enough permits")
	}
	held.Release()
	mustReady[*syncx.Permit](t, big, &wBig).Release()
}

func TestSemaphore_CancelAfterGrantReturnsPermits(t *testing.T) {
	s := syncx.NewSemaphore(2)
	held, _ := s.TryAcquire(2)
	var w countWaker
	f := s.AcquireAsync(2)
	mustPending[*syncx.Permit](t, f, &w)
	held.Release() // granted to f
	if s.Available() != 0 {
		t.Fatalf("available = %d, want 0 after grant", s.Available())
	}
	f.Cancel()
	if s.Available() != 2 {
		t.Fatalf("cancelled grant leaked permits: available=%d", s.Available())
	}
}

func TestSemaphore_ForgetAndRelease(t *testing.T) {
	s := syncx.NewSemaphore(2)
	p, _ := s.TryAcquire(2)
	if n := p.Forget(); n != 2 {
		t.Fatalf("Forget = %d, want 2", n)
	}
	p.Release() // no-op after Forget
	if s.Available() != 0 {
		t.Fatal("released forgotten permits")
	}
	if err := s.Release(2); err != nil {
		t.Fatal(err)
	}
	if s.Available() != 2 {
		t.Fatalf("available = %d, want 2", s.Available())
	}
}

func TestSemaphore_ConservationUnderConcurrency(t *testing.T) {
	const total = 7
	s := syncx.NewSemaphore(total)
	var held atomic.Int64
	var violations atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for j := 0; j < 150; j++ {
				n := 1 + rng.Intn(total)
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(rng.Intn(200))*time.Microsecond)
				p, err := s.Acquire(ctx, n)
				cancel()
				if err != nil {
					continue
				}
				if held.Add(int64(n)) > total {
					violations.Add(1)
				}
				held.Add(-int64(n))
				p.Release()
			}
		}(int64(i))
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(20 * time.Second):
		t.Fatal("timeout: semaphore stalled")
	}
	if violations.Load() != 0 {
		t.Fatalf("%d over-subscriptions observed", violations.Load())
	}
	st := s.Stats()
	if st.Available != total || st.Waiters != 0 {
		t.Fatalf("stats after run = %+v, want all permits back and no waiters", st)
	}
}
