package facade_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/facade"
)

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := facade.ParseConfig([]byte(`
lock_kind: spin
fair_mutex: false
num_workers: 2
timer_slack: 1ms
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LockKind != "spin" || cfg.FairMutex || cfg.NumWorkers != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.TimerSlack != time.Millisecond {
		t.Errorf("timer_slack = %v", cfg.TimerSlack)
	}
	// untouched fields keep defaults
	if !cfg.FairSemaphore || cfg.DefaultChannelCapacity != 64 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	if _, err := facade.ParseConfig([]byte("lock_kind: futex\n")); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("lock_kind: %v", err)
	}
	if _, err := facade.ParseConfig([]byte("lock_kind: noop\n")); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("noop lock_kind: %v", err)
	}
	if _, err := facade.ParseConfig([]byte("num_workers: -1\n")); err == nil {
		t.Error("negative num_workers accepted")
	}
	if _, err := facade.ParseConfig([]byte("num_workers: [1\n")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	if err := os.WriteFile(path, []byte("ring_capacity: 256\nenable_debug: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := facade.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RingCapacity != 256 || cfg.EnableDebug {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if _, err := facade.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}
