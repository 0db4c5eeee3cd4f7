package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigThresholdsAreOrdered(t *testing.T) {
	cfg := DefaultConfig()
	if !(cfg.Access.DenyThreshold < cfg.Access.ChallengeThreshold &&
		cfg.Access.ChallengeThreshold < cfg.Access.RestrictThreshold) {
		t.Fatalf("expected deny < challenge < restrict, got %+v", cfg.Access)
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Fatalf("expected default port, got %d", cfg.API.Port)
	}
}

func TestSaveThenLoadConfigRoundTrips(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	cfg := DefaultConfig()
	cfg.Node.ID = "node-test"
	cfg.API.Port = 9999

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(SentinelHome(), "config.toml")); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Node.ID != "node-test" || loaded.API.Port != 9999 {
		t.Fatalf("expected round-tripped values, got %+v", loaded)
	}
}
