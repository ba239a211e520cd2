// Package future
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Drives api.Future values from ordinary goroutines. A goroutine that calls
// Await parks on a channel instead of spinning; the registered waker only
// signals that channel.

package future

import (
	"context"

	"github.com/momentics/hioload-async/api"
)

// Await polls f until it completes or ctx ends. When ctx ends first, f is
// polled once more so a result that raced with cancellation is not thrown
// away; otherwise f is cancelled and ctx.Err() is returned.
func Await[T any](ctx context.Context, f api.Future[T]) (T, error) {
	wake := make(chan struct{}, 1)
	w := api.WakerFunc(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	done := ctx.Done()
	for {
		if r, ok := f.Poll(w); ok {
			return r.Value, r.Err
		}
		select {
		case <-wake:
		case <-done:
			if r, ok := f.Poll(api.NoopWaker); ok {
				return r.Value, r.Err
			}
			f.Cancel()
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready is a future that is complete from the start.
type Ready[T any] struct {
	R api.Result[T]
}

// Poll returns the stored result.
func (r Ready[T]) Poll(api.Waker) (api.Result[T], bool) { return r.R, true }

// Cancel is a no-op.
func (Ready[T]) Cancel() {}

// Func adapts a poll function and an optional cancel function into a Future.
type Func[T any] struct {
	PollFn   func(w api.Waker) (api.Result[T], bool)
	CancelFn func()
}

// Poll delegates to PollFn.
func (f Func[T]) Poll(w api.Waker) (api.Result[T], bool) { return f.PollFn(w) }

// Cancel delegates to CancelFn when set.
func (f Func[T]) Cancel() {
	if f.CancelFn != nil {
		f.CancelFn()
	}
}
