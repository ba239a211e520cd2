package timer_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/clock"
	"github.com/momentics/hioload-async/timer"
)

type countWaker struct {
	n atomic.Int32
}

func (w *countWaker) Wake()      { w.n.Add(1) }
func (w *countWaker) Count() int { return int(w.n.Load()) }

func TestFuture_NeverFiresEarly(t *testing.T) {
	clk := clock.NewManual(0)
	s := timer.NewService(clk)
	f := s.Delay(100 * time.Nanosecond)
	var w countWaker
	if _, ok := f.Poll(&w); ok {
		t.Fatal("timer ready before deadline")
	}
	clk.Advance(99)
	if next, ok := s.CheckExpirations(); !ok || next != 100 {
		t.Fatalf("CheckExpirations = %d, %v; want 100, true", next, ok)
	}
	if w.Count() != 0 {
		t.Fatal("timer fired one nanosecond early")
	}
	clk.Advance(1)
	if _, ok := s.CheckExpirations(); ok {
		t.Fatal("expired timer still registered")
	}
	if w.Count() != 1 {
		t.Fatalf("woken %d times, want 1", w.Count())
	}
	if r, ok := f.Poll(&w); !ok || r.Err != nil {
		t.Fatalf("Poll after expiry = %+v, %v", r, ok)
	}
}

func TestFuture_OrderedExpiry(t *testing.T) {
	clk := clock.NewManual(0)
	s := timer.NewService(clk)
	var order []int
	for _, d := range []int64{30, 10, 20} {
		d := d
		f := s.DelayUntil(d)
		f.Poll(api.WakerFunc(func() { order = append(order, int(d)) }))
	}
	clk.Set(30)
	s.CheckExpirations()
	if len(order) != 3 || order[0] != 10 || order[1] != 20 || order[2] != 30 {
		t.Fatalf("fire order = %v", order)
	}
}

func TestFuture_CancelDropsRegistration(t *testing.T) {
	clk := clock.NewManual(0)
	s := timer.NewService(clk)
	f := s.Delay(10)
	var w countWaker
	f.Poll(&w)
	if s.Stats().Pending != 1 {
		t.Fatal("timer not registered")
	}
	f.Cancel()
	if s.Stats().Pending != 0 {
		t.Fatal("cancelled timer still registered")
	}
	clk.Advance(20)
	s.CheckExpirations()
	if w.Count() != 0 {
		t.Fatal("cancelled timer fired")
	}
	if r, ok := f.Poll(&w); !ok || !errors.Is(r.Err, api.ErrCanceled) {
		t.Fatalf("Poll after cancel = %+v, %v", r, ok)
	}
}

func TestService_RunDrivesSleep(t *testing.T) {
	s := timer.NewService(clock.Monotonic{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	start := time.Now()
	if err := s.Sleep(context.Background(), 15*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("Sleep returned after %v, before its deadline", elapsed)
	}
}

func TestService_EarlierDeadlineRearmsRun(t *testing.T) {
	s := timer.NewService(clock.Monotonic{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	long := s.Delay(time.Hour)
	long.Poll(api.NoopWaker)
	defer long.Cancel()

	done := make(chan error, 1)
	go func() { done <- s.Sleep(context.Background(), 5*time.Millisecond) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("short sleep stuck behind a long timer")
	}
}

func TestService_SleepContextCancel(t *testing.T) {
	s := timer.NewService(clock.Monotonic{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := s.Sleep(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if s.Stats().Pending != 0 {
		t.Fatal("abandoned sleep left a registration")
	}
}

func TestScheduler_DelayedExecution(t *testing.T) {
	clk := clock.NewManual(0)
	s := timer.NewService(clk)
	var count int32
	c, err := s.Schedule(10_000_000, func() { atomic.AddInt32(&count, 1) })
	if err != nil {
		t.Fatal(err)
	}
	clk.Advance(10 * time.Millisecond)
	s.CheckExpirations()
	if atomic.LoadInt32(&count) != 1 {
		t.Fatal("scheduled function did not run after delay")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after firing")
	}
	if c.Err() != nil {
		t.Fatalf("Err = %v after firing", c.Err())
	}
	if err := s.Cancel(c); err == nil {
		t.Fatal("Cancel of fired callback succeeded")
	}
}

func TestScheduler_Cancel(t *testing.T) {
	clk := clock.NewManual(0)
	s := timer.NewService(clk)
	c, _ := s.Schedule(50, func() { t.Error("shouldn't execute") })
	if err := s.Cancel(c); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(c.Err(), api.ErrCanceled) {
		t.Fatalf("Err = %v, want ErrCanceled", c.Err())
	}
	clk.Advance(100)
	s.CheckExpirations()
}

func TestDelay_HugeDurationSaturates(t *testing.T) {
	clk := clock.NewManual(int64(time.Hour))
	s := timer.NewService(clk)
	f := s.Delay(time.Duration(math.MaxInt64))
	if f.Deadline() != math.MaxInt64 {
		t.Fatalf("deadline = %d, want saturation at MaxInt64", f.Deadline())
	}
	var w countWaker
	if _, ok := f.Poll(&w); ok {
		t.Fatal("timer with huge delay completed immediately")
	}
	clk.Advance(24 * time.Hour)
	s.CheckExpirations()
	if w.Count() != 0 {
		t.Fatal("timer with huge delay fired")
	}
	f.Cancel()

	fired := false
	sc, err := s.Schedule(math.MaxInt64, func() { fired = true })
	if err != nil {
		t.Fatal(err)
	}
	s.CheckExpirations()
	if fired {
		t.Fatal("scheduled callback with huge delay fired")
	}
	if err := sc.Cancel(); err != nil {
		t.Fatal(err)
	}
}

func TestRun_HugeDeadlineDoesNotSpin(t *testing.T) {
	s := timer.NewService(clock.Monotonic{}, timer.WithSlack(time.Millisecond))
	f := s.Delay(time.Duration(math.MaxInt64))
	var w countWaker
	if _, ok := f.Poll(&w); ok {
		t.Fatal("timer ready")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v", err)
	}
	if w.Count() != 0 {
		t.Fatal("timer with huge delay fired under Run")
	}
}
