package adapters_test

import (
	"testing"
	"time"

	"github.com/hioload/httpd/adapters"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	cfg := ctrl.GetConfig()
	if len(cfg) != 0 {
		t.Error("Expected empty config on init")
	}
	if err := ctrl.SetConfig(map[string]any{"k": 1}); err != nil {
		t.Fatal(err)
	}
	stats := ctrl.Stats()
	if stats["k"] != 1 {
		t.Error("SetConfig did not apply")
	}

	// Reload hooks dispatch on their own goroutines; the hook registers in
	// both the instance store and the global registry, so it can fire twice.
	reloaded := make(chan struct{}, 2)
	ctrl.OnReload(func() { reloaded <- struct{}{} })
	if err := ctrl.SetConfig(map[string]any{"x": 2}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Error("Reload hook not called")
	}
}

func TestControlAdapterSetMetric(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.SetMetric("requests_total", uint64(7))
	stats := ctrl.Stats()
	if stats["metrics.requests_total"] != uint64(7) {
		t.Errorf("expected metric under metrics.requests_total, got %v", stats["metrics.requests_total"])
	}
}

func TestControlAdapterDebugProbes(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.RegisterDebugProbe("answer", func() any { return 42 })
	stats := ctrl.Stats()
	if stats["debug.answer"] != 42 {
		t.Errorf("expected probe value under debug.answer, got %v", stats["debug.answer"])
	}
}
