// control/control_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"sync"
	"testing"
)

type fakeStats struct{ n int }

func (f fakeStats) StatsSnapshot() any { return f.n }

func TestConfigStore_ReloadListeners(t *testing.T) {
	cs := NewConfigStore()
	calls := 0
	cs.OnReload(func() {
		calls++
		if v, _ := cs.Get("k"); v != 1 {
			t.Errorf("listener saw %v", v)
		}
	})
	cs.SetConfig(map[string]any{"k": 1})
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	snap := cs.GetSnapshot()
	snap["k"] = 2
	if v, _ := cs.Get("k"); v != 1 {
		t.Fatal("snapshot aliases the store")
	}
}

func TestMetricsRegistry_CountersAndGauges(t *testing.T) {
	mr := NewMetricsRegistry()
	if !mr.Updated().IsZero() {
		t.Fatal("fresh registry reports an update")
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				mr.Add("ops", 1)
			}
		}()
	}
	wg.Wait()
	mr.Set("mode", "fair")
	if mr.Counter("ops") != 8000 {
		t.Fatalf("ops = %d", mr.Counter("ops"))
	}
	snap := mr.GetSnapshot()
	if snap["ops"] != int64(8000) || snap["mode"] != "fair" {
		t.Fatalf("snapshot = %v", snap)
	}
	if mr.Updated().IsZero() {
		t.Fatal("update time not recorded")
	}
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	dp.RegisterStats("prim", fakeStats{n: 3})
	state := dp.DumpState()
	if state["prim"] != 3 {
		t.Fatalf("prim = %v", state["prim"])
	}
	if _, ok := state["platform.cpus"]; !ok {
		t.Fatal("platform probe missing")
	}
	dp.UnregisterProbe("prim")
	if _, ok := dp.DumpState()["prim"]; ok {
		t.Fatal("probe not removed")
	}
}

func TestHotReloadHooks(t *testing.T) {
	called := 0
	RegisterReloadHook(func() { called++ })
	TriggerHotReloadSync()
	if called != 1 {
		t.Fatalf("called = %d", called)
	}
}
