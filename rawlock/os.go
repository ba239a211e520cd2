// File: rawlock/os.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rawlock

import "sync"

// OS wraps sync.Mutex.
type OS struct {
	mu sync.Mutex
}

func (l *OS) Lock()         { l.mu.Lock() }
func (l *OS) Unlock()       { l.mu.Unlock() }
func (l *OS) TryLock() bool { return l.mu.TryLock() }

// Noop performs no locking. Only valid when every operation on the
// primitive happens on one goroutine, e.g. inside a LocalExecutor.
type Noop struct{}

func (Noop) Lock()         {}
func (Noop) Unlock()       {}
func (Noop) TryLock() bool { return true }
