package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.ReadLimit != 1024*1024 {
		t.Errorf("read_limit = %d", cfg.ReadLimit)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Errorf("ping_period = %v", cfg.PingPeriod)
	}
	if cfg.PistonURL == "" {
		t.Error("piston_url default missing")
	}
	if len(cfg.CORSAllow) == 0 {
		t.Error("cors_allow default missing")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PAIRPAD_PORT", "9999")
	t.Setenv("PAIRPAD_DB_PATH", "/tmp/override.db")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Port)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
}
