// Package config defines the mission-control application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level mission-control configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	DataDir   string          `json:"data_dir" yaml:"data_dir"`
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`
	Tasks     TasksConfig     `json:"tasks" yaml:"tasks"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Cron      CronConfig      `json:"cron" yaml:"cron"`
	LogLevel  string          `json:"log_level" yaml:"log_level"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":3001"
}

// WorkspaceConfig locates the shared, human-editable files: the task queue
// mirror and the per-agent cards.
type WorkspaceConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	QueueFile string `json:"queue_file" yaml:"queue_file"`
	AgentsDir string `json:"agents_dir" yaml:"agents_dir"`
	MemoryDir string `json:"memory_dir" yaml:"memory_dir"`
}

// TasksConfig holds task-store policy knobs.
type TasksConfig struct {
	// AllowCycles permits self-referential and cyclic dependency edges.
	AllowCycles bool `json:"allow_cycles" yaml:"allow_cycles"`
}

// RateLimitConfig shapes the per-client API rate limiter.
type RateLimitConfig struct {
	Requests int           `json:"requests" yaml:"requests"`
	Window   time.Duration `json:"window" yaml:"window"`
}

// CronConfig names the scheduler CLI the cron endpoints shell out to.
type CronConfig struct {
	Bin string `json:"bin" yaml:"bin"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":3001"},
		DataDir: "./data",
		Workspace: WorkspaceConfig{
			Dir:       "./workspace-shared",
			QueueFile: "TASK-QUEUE.md",
			AgentsDir: "agents",
			MemoryDir: "memory",
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   15 * time.Minute,
		},
		Cron:     CronConfig{Bin: "openclaw"},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DBPath returns the SQLite database location under DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mission-control.db")
}

// QueuePath returns the task queue mirror's absolute location.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Workspace.Dir, c.Workspace.QueueFile)
}

// AgentsPath returns the agent cards directory.
func (c *Config) AgentsPath() string {
	return filepath.Join(c.Workspace.Dir, c.Workspace.AgentsDir)
}

// MemoryPath returns the default memory documents directory.
func (c *Config) MemoryPath() string {
	return filepath.Join(c.Workspace.Dir, c.Workspace.MemoryDir)
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
