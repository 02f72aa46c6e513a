// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fireside.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
base_url: https://chat.example.com
rooms: [1, 139]
capture:
  enabled: true
  dir: /var/lib/fireside/captures
log:
  level: debug
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.BaseURL != "https://chat.example.com" {
		t.Errorf("base URL: got %q", cfg.BaseURL)
	}
	if len(cfg.Rooms) != 2 || cfg.Rooms[0] != 1 || cfg.Rooms[1] != 139 {
		t.Errorf("rooms: got %v", cfg.Rooms)
	}
	if !cfg.Capture.Enabled || cfg.Capture.Dir != "/var/lib/fireside/captures" {
		t.Errorf("capture: got %+v", cfg.Capture)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v", cfg.Log.SlogLevel())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeConfig(t, `
base_url: https://chat.example.com
rooms: [1]
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level: got %q", cfg.Log.Level)
	}
	if cfg.Capture.Enabled {
		t.Error("capture enabled by default")
	}
	if !strings.HasSuffix(cfg.Capture.Dir, "/.cache/fireside/captures") {
		t.Errorf("default capture dir not expanded: %q", cfg.Capture.Dir)
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("FIRESIDE_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load: got nil error with FIRESIDE_CONFIG unset")
	}
}

func TestLoadFromEnvVar(t *testing.T) {
	path := writeConfig(t, "base_url: https://chat.example.com\nrooms: [7]\n")
	t.Setenv("FIRESIDE_CONFIG", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Rooms) != 1 || cfg.Rooms[0] != 7 {
		t.Errorf("rooms: got %v", cfg.Rooms)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: "base_url is required",
		},
		{
			name:    "no rooms",
			mutate:  func(c *Config) { c.Rooms = nil },
			wantErr: "at least one room",
		},
		{
			name:    "bad room id",
			mutate:  func(c *Config) { c.Rooms = []int{0} },
			wantErr: "invalid room id",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name: "capture without dir",
			mutate: func(c *Config) {
				c.Capture.Enabled = true
				c.Capture.Dir = ""
			},
			wantErr: "capture.dir",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.BaseURL = "https://chat.example.com"
			cfg.Rooms = []int{1}
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate: got nil error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate: got %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	path := writeConfig(t, `
base_url: https://chat.example.com
rooms: [1]
capture:
  dir: ${HOME}/captures
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Capture.Dir != "/home/tester/captures" {
		t.Errorf("expanded dir: got %q", cfg.Capture.Dir)
	}
}

func TestCaptureFile(t *testing.T) {
	cfg := Default()
	cfg.Capture.Dir = "/tmp/captures"
	got := cfg.CaptureFile(139, "20260831T120000")
	want := "/tmp/captures/room-139-20260831T120000.frames"
	if got != want {
		t.Errorf("CaptureFile: got %q, want %q", got, want)
	}
}
