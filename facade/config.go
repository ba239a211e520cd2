// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime configuration. Values are immutable per run; the facade mirrors
// them into the Control store for observation and hot-reload.

package facade

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/rawlock"
)

// Config holds parameters immutable per run.
type Config struct {
	LockKind               string        `yaml:"lock_kind"`                // os | spin | deadlock
	FairMutex              bool          `yaml:"fair_mutex"`               // FIFO handoff for mutexes
	FairSemaphore          bool          `yaml:"fair_semaphore"`           // strict FIFO for semaphores
	DefaultChannelCapacity int           `yaml:"default_channel_capacity"` // used when NewChannel gets 0
	NumWorkers             int           `yaml:"num_workers"`              // executor workers, 0 = NumCPU
	PinWorkers             bool          `yaml:"pin_workers"`              // bind workers to CPUs
	RingCapacity           int           `yaml:"ring_capacity"`            // per-worker task ring
	EnableMetrics          bool          `yaml:"enable_metrics"`           // count created primitives
	EnableDebug            bool          `yaml:"enable_debug"`             // register a probe per primitive
	TimerSlack             time.Duration `yaml:"timer_slack"`              // added to every timer wait
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		LockKind:               rawlock.KindOS.String(),
		FairMutex:              true,
		FairSemaphore:          true,
		DefaultChannelCapacity: 64,
		NumWorkers:             4,
		PinWorkers:             false,
		RingCapacity:           1024,
		EnableMetrics:          true,
		EnableDebug:            true,
		TimerSlack:             0,
	}
}

// ParseConfig decodes YAML over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("facade: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("facade: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	k, err := rawlock.ParseKind(c.LockKind)
	if err != nil {
		return fmt.Errorf("facade: lock_kind: %w", err)
	}
	if k == rawlock.KindNoop {
		// runtime primitives are always shared with worker and timer goroutines
		return fmt.Errorf("facade: lock_kind %q is single-goroutine only: %w", c.LockKind, api.ErrInvalidArgument)
	}
	switch {
	case c.NumWorkers < 0:
		return fmt.Errorf("facade: num_workers %d is negative", c.NumWorkers)
	case c.RingCapacity < 0:
		return fmt.Errorf("facade: ring_capacity %d is negative", c.RingCapacity)
	case c.TimerSlack < 0:
		return fmt.Errorf("facade: timer_slack %v is negative", c.TimerSlack)
	}
	return nil
}

// lockKind returns the parsed lock kind; Validate has already accepted it.
func (c *Config) lockKind() rawlock.Kind {
	k, _ := rawlock.ParseKind(c.LockKind)
	return k
}

// toMap flattens the config for the Control store.
func (c *Config) toMap() map[string]any {
	return map[string]any{
		"lock_kind":                c.LockKind,
		"fair_mutex":               c.FairMutex,
		"fair_semaphore":           c.FairSemaphore,
		"default_channel_capacity": c.DefaultChannelCapacity,
		"num_workers":              c.NumWorkers,
		"pin_workers":              c.PinWorkers,
		"ring_capacity":            c.RingCapacity,
		"enable_metrics":           c.EnableMetrics,
		"enable_debug":             c.EnableDebug,
		"timer_slack":              int64(c.TimerSlack),
	}
}
