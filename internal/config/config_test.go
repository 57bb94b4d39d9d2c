package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "data/colony.db" || cfg.APIPort != 8080 || cfg.Speed != 1 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.FrameInterval() != 50*time.Millisecond || cfg.AutosaveInterval() != time.Minute {
		t.Fatalf("intervals = %v, %v", cfg.FrameInterval(), cfg.AutosaveInterval())
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelInfo {
		t.Fatalf("level = %v", lvl)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COLONY_SEED", "night-landing")
	t.Setenv("COLONY_SCENARIO", "harsh")
	t.Setenv("COLONY_AUTOSAVE_SECONDS", "0")
	t.Setenv("COLONY_LOG_LEVEL", "debug")
	t.Setenv("COLONY_LOG_FORMAT", "json")
	t.Setenv("COLONY_CORS_ORIGINS", "https://colony.example,http://localhost:8000")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != "night-landing" || cfg.Scenario != "harsh" || cfg.AutosaveInterval() != 0 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Fatalf("level = %v", lvl)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://colony.example" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("COLONY_API_PORT", "not-an-int")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v, want parse env error", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero frame", "COLONY_FRAME_MS", "0"},
		{"negative autosave", "COLONY_AUTOSAVE_SECONDS", "-1"},
		{"bad format", "COLONY_LOG_FORMAT", "xml"},
		{"bad level", "COLONY_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s accepted", tt.key, tt.val)
			}
		})
	}
}
