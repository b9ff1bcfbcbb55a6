package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coccobas/agent-memory/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.DefaultLimit <= 0 || cfg.MaxLimit < cfg.DefaultLimit {
		t.Errorf("limits = (%d, %d), default must be positive and below max",
			cfg.DefaultLimit, cfg.MaxLimit)
	}
	if cfg.ChainCacheTTL <= 0 {
		t.Error("chain cache should be enabled by default")
	}
	w := cfg.Scoring
	sum := w.PriorityWeight + w.RecencyWeight + w.SpecificityWeight + w.TextWeight
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("default scoring weights sum to %g, want 1", sum)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != config.Default() {
		t.Error("empty path should return the defaults unchanged")
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/mem-test
default_limit: 20
max_limit: 40
chain_cache_ttl: 30s
permission_mode: deny_anonymous
scoring:
  recency_half_life: 48h
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultLimit != 20 || cfg.MaxLimit != 40 {
		t.Errorf("limits = (%d, %d), want (20, 40)", cfg.DefaultLimit, cfg.MaxLimit)
	}
	if cfg.ChainCacheTTL.Std() != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", cfg.ChainCacheTTL.Std())
	}
	if cfg.PermissionMode != "deny_anonymous" {
		t.Errorf("permission mode = %q", cfg.PermissionMode)
	}
	if cfg.Scoring.RecencyHalfLife.Std() != 48*time.Hour {
		t.Errorf("half-life = %v, want 48h", cfg.Scoring.RecencyHalfLife.Std())
	}
	// Untouched fields keep their defaults.
	if cfg.ExplainTopN != config.Default().ExplainTopN {
		t.Error("unset fields must keep defaults")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestLoad_RejectsBadLimits(t *testing.T) {
	path := writeConfig(t, "default_limit: 50\nmax_limit: 10\n")
	if _, err := config.Load(path); err == nil {
		t.Error("max below default should be rejected")
	}
}

func TestLoad_RejectsBadRecencyFloor(t *testing.T) {
	path := writeConfig(t, "scoring:\n  recency_floor: 1.5\n")
	if _, err := config.Load(path); err == nil {
		t.Error("recency floor above 1 should be rejected")
	}
}

func TestLoad_RejectsNegativeExplainTopN(t *testing.T) {
	path := writeConfig(t, "explain_top_n: -1\n")
	if _, err := config.Load(path); err == nil {
		t.Error("negative explain_top_n should be rejected")
	}
}
