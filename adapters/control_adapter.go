// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/control"
)

var _ api.Control = (*ControlAdapter)(nil)

type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	if cfg == nil {
		return api.ErrInvalidArgument.WithContext("reason", "nil config")
	}
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges metrics, config and probe output. Probe keys are prefixed
// with "debug.".
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.metrics.GetSnapshot()
	for k, v := range c.config.GetSnapshot() {
		if _, ok := combined[k]; !ok {
			combined[k] = v
		}
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
	control.RegisterReloadHook(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) AddMetric(key string, delta int64) int64 {
	return c.metrics.Add(key, delta)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

func (c *ControlAdapter) UnregisterDebugProbe(name string) {
	c.debug.UnregisterProbe(name)
}

// Debug exposes the probe registry.
func (c *ControlAdapter) Debug() api.Debug {
	return c.debug
}
