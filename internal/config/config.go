// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the colonysim process configuration.
type Config struct {
	Seed        string `env:"COLONY_SEED"`
	Scenario    string `env:"COLONY_SCENARIO"`
	Profile     string `env:"COLONY_PROFILE"`
	Speed       int    `env:"COLONY_SPEED"        envDefault:"1"`
	ContentPath string `env:"COLONY_CONTENT_PATH"`

	DBPath          string        `env:"COLONY_DB_PATH"          envDefault:"data/colony.db"`
	AutosaveSeconds int           `env:"COLONY_AUTOSAVE_SECONDS" envDefault:"60"`
	ExportPath      string        `env:"COLONY_EXPORT_PATH"`
	ImportPath      string        `env:"COLONY_IMPORT_PATH"`
	FrameMS         int           `env:"COLONY_FRAME_MS"         envDefault:"50"`
	ShutdownTimeout time.Duration `env:"COLONY_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	APIPort     int      `env:"COLONY_API_PORT"  envDefault:"8080"`
	AdminKey    string   `env:"COLONY_ADMIN_KEY"`
	CORSOrigins []string `env:"COLONY_CORS_ORIGINS" envSeparator:","`

	LogFormat string `env:"COLONY_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"COLONY_LOG_LEVEL"  envDefault:"info"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the process cannot run with.
func (c Config) Validate() error {
	if c.FrameMS <= 0 {
		return fmt.Errorf("COLONY_FRAME_MS must be positive, got %d", c.FrameMS)
	}
	if c.AutosaveSeconds < 0 {
		return fmt.Errorf("COLONY_AUTOSAVE_SECONDS must not be negative, got %d", c.AutosaveSeconds)
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("COLONY_API_PORT out of range: %d", c.APIPort)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("COLONY_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// FrameInterval is the runner's frame interval.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameMS) * time.Millisecond
}

// AutosaveInterval is the autosave period; zero disables autosave.
func (c Config) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveSeconds) * time.Second
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("COLONY_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
