// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Fireside commands.
//
// Configuration is loaded from a single YAML file specified by:
//   - FIRESIDE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides. The
// only expansion performed is ${HOME} and similar path variables for
// portability.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for Fireside commands.
type Config struct {
	// BaseURL is the root of the chat service, e.g.
	// "https://chat.example.com".
	BaseURL string `yaml:"base_url"`

	// Rooms are the room ids to join.
	Rooms []int `yaml:"rooms"`

	// Capture configures raw frame capture.
	Capture CaptureConfig `yaml:"capture"`

	// Log configures diagnostic output.
	Log LogConfig `yaml:"log"`
}

// CaptureConfig configures raw frame capture.
type CaptureConfig struct {
	// Enabled turns frame capture on.
	Enabled bool `yaml:"enabled"`

	// Dir is where capture files are written, one file per run.
	// Default: ${HOME}/.cache/fireside/captures
	Dir string `yaml:"dir"`
}

// LogConfig configures diagnostic output.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
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

// Default returns the default configuration. These defaults are a base
// for the config file, not a substitute for it: BaseURL and Rooms have
// no usable defaults.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Dir: "${HOME}/.cache/fireside/captures",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the FIRESIDE_CONFIG environment
// variable. There are no fallbacks: if FIRESIDE_CONFIG is not set,
// Load fails.
func Load() (*Config, error) {
	path := os.Getenv("FIRESIDE_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("FIRESIDE_CONFIG environment variable not set; " +
			"set it to the path of your fireside.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override config values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Capture.Dir = expandVars(c.Capture.Dir, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf("base_url is required"))
	}
	if len(c.Rooms) == 0 {
		errs = append(errs, fmt.Errorf("at least one room is required"))
	}
	for _, room := range c.Rooms {
		if room <= 0 {
			errs = append(errs, fmt.Errorf("invalid room id: %d", room))
		}
	}
	if c.Capture.Enabled && c.Capture.Dir == "" {
		errs = append(errs, fmt.Errorf("capture.dir is required when capture is enabled"))
	}
	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureCaptureDir creates the capture directory if capture is
// enabled.
func (c *Config) EnsureCaptureDir() error {
	if !c.Capture.Enabled {
		return nil
	}
	if err := os.MkdirAll(c.Capture.Dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Capture.Dir, err)
	}
	return nil
}

// CaptureFile returns the capture file path for one run, named after
// the room and a caller-supplied stamp.
func (c *Config) CaptureFile(roomID int, stamp string) string {
	return filepath.Join(c.Capture.Dir, fmt.Sprintf("room-%d-%s.frames", roomID, stamp))
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
