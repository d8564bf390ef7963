package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":3001" {
		t.Errorf("Addr = %q, want :3001", cfg.Server.Addr)
	}
	if cfg.Workspace.QueueFile != "TASK-QUEUE.md" {
		t.Errorf("QueueFile = %q", cfg.Workspace.QueueFile)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Tasks.AllowCycles {
		t.Error("AllowCycles defaults on")
	}
	if cfg.Cron.Bin != "openclaw" {
		t.Errorf("Cron.Bin = %q", cfg.Cron.Bin)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missionctl.yaml")
	content := `
server:
  addr: ":8080"
workspace:
  dir: /srv/workspace
tasks:
  allow_cycles: true
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Workspace.Dir != "/srv/workspace" {
		t.Errorf("Workspace.Dir = %q", cfg.Workspace.Dir)
	}
	if !cfg.Tasks.AllowCycles {
		t.Error("AllowCycles not loaded")
	}
	// Unset keys keep their defaults.
	if cfg.Workspace.QueueFile != "TASK-QUEUE.md" {
		t.Errorf("QueueFile = %q, want default", cfg.Workspace.QueueFile)
	}
	if cfg.RateLimit.Requests != 100 {
		t.Errorf("RateLimit.Requests = %d, want default 100", cfg.RateLimit.Requests)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load on missing file succeeded")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load on invalid yaml succeeded")
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/missionctl"
	cfg.Workspace.Dir = "/srv/workspace"

	if got := cfg.DBPath(); got != filepath.Join("/var/lib/missionctl", "mission-control.db") {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.QueuePath(); got != filepath.Join("/srv/workspace", "TASK-QUEUE.md") {
		t.Errorf("QueuePath = %q", got)
	}
	if got := cfg.AgentsPath(); got != filepath.Join("/srv/workspace", "agents") {
		t.Errorf("AgentsPath = %q", got)
	}
	if got := cfg.MemoryPath(); got != filepath.Join("/srv/workspace", "memory") {
		t.Errorf("MemoryPath = %q", got)
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
