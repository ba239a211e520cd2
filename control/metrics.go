// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector. Counters are int64 and updated atomically;
// gauges hold arbitrary values.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRegistry holds counters and gauges.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64
	gauges   map[string]any
	updated  atomic.Int64 // unix nanos of the last write
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Int64),
		gauges:   make(map[string]any),
	}
}

func (mr *MetricsRegistry) counter(key string) *atomic.Int64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[key]; !ok {
		c = new(atomic.Int64)
		mr.counters[key] = c
	}
	return c
}

// Add increments a counter by delta and returns the new value.
func (mr *MetricsRegistry) Add(key string, delta int64) int64 {
	v := mr.counter(key).Add(delta)
	mr.updated.Store(time.Now().UnixNano())
	return v
}

// Counter returns the current value of a counter.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	if c, ok := mr.counters[key]; ok {
		return c.Load()
	}
	return 0
}

// Set sets or updates a gauge.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.gauges[key] = value
	mr.mu.Unlock()
	mr.updated.Store(time.Now().UnixNano())
}

// Updated returns the time of the last write, zero if none.
func (mr *MetricsRegistry) Updated() time.Time {
	ns := mr.updated.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// GetSnapshot returns counters and gauges merged into one map.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.gauges))
	for k, v := range mr.gauges {
		out[k] = v
	}
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	return out
}
