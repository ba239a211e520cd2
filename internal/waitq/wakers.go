// File: internal/waitq/wakers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package waitq

import "github.com/momentics/hioload-async/api"

// Wakers collects wake handles under a primitive lock so they can be
// invoked after the lock is released.
type Wakers struct {
	one  api.Waker
	more []api.Waker
}

// Add records w; nil is ignored.
func (ws *Wakers) Add(w api.Waker) {
	if w == nil {
		return
	}
	if ws.one == nil {
		ws.one = w
		return
	}
	ws.more = append(ws.more, w)
}

// Len returns the number of collected wakers.
func (ws *Wakers) Len() int {
	if ws.one == nil {
		return 0
	}
	return 1 + len(ws.more)
}

// Wake invokes every collected waker once, in collection order, and resets
// the list. Must be called without holding the primitive lock.
func (ws *Wakers) Wake() {
	one, more := ws.one, ws.more
	ws.one, ws.more = nil, nil
	if one != nil {
		one.Wake()
	}
	for _, w := range more {
		w.Wake()
	}
}
