// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// ---- load ----

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB0
  baud: 115200
dimmer:
  device_id: living-room
  leading_edge: true
  min_brightness: 100
  max_brightness: 900
  fade_rate: 10
  update_interval_ms: 5000
  firmware:
    major: 51
    minor: 7
store:
  path: /tmp/calibration.cbor
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("Port: got %q", cfg.Serial.Port)
	}
	if cfg.Dimmer.DeviceID != "living-room" {
		t.Errorf("DeviceID: got %q", cfg.Dimmer.DeviceID)
	}
	if !cfg.Dimmer.LeadingEdge {
		t.Error("LeadingEdge should be true")
	}
	if cfg.Dimmer.MinBrightness != 100 || cfg.Dimmer.MaxBrightness != 900 {
		t.Errorf("Brightness limits: got %d..%d", cfg.Dimmer.MinBrightness, cfg.Dimmer.MaxBrightness)
	}
	if cfg.Store.Path != "/tmp/calibration.cbor" {
		t.Errorf("Store path: got %q", cfg.Store.Path)
	}
}

func TestLoad_DefaultsSurviveSparseFile(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Baud != DefaultBaud {
		t.Errorf("Baud should default to %d, got %d", DefaultBaud, cfg.Serial.Baud)
	}
	if cfg.Dimmer.MaxBrightness != 1000 {
		t.Errorf("MaxBrightness should default to 1000, got %d", cfg.Dimmer.MaxBrightness)
	}
	if cfg.Dimmer.Firmware.Major != 51 || cfg.Dimmer.Firmware.Minor != 7 {
		t.Errorf("Firmware should default to 51.7, got %d.%d",
			cfg.Dimmer.Firmware.Major, cfg.Dimmer.Firmware.Minor)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB0
  parity: even
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Unknown fields should be rejected")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Missing file should be an error")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("An empty file should load as defaults: %v", err)
	}
	if cfg.Dimmer.MaxBrightness != 1000 {
		t.Errorf("Expected default config, got max brightness %d", cfg.Dimmer.MaxBrightness)
	}
}

// ---- validate ----

func TestValidate(t *testing.T) {
	serial := func(mutate func(*Config)) *Config {
		cfg := Default()
		cfg.Serial.Port = "/dev/ttyUSB0"
		if mutate != nil {
			mutate(cfg)
		}
		return cfg
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "valid serial",
			cfg:  serial(nil),
		},
		{
			name: "valid bridge",
			cfg: func() *Config {
				cfg := Default()
				cfg.Bridge.URL = "wss://bridge.local/uart"
				return cfg
			}(),
		},
		{
			name:    "no endpoint",
			cfg:     Default(),
			wantErr: "must be set",
		},
		{
			name: "both endpoints",
			cfg: serial(func(c *Config) {
				c.Bridge.URL = "ws://bridge.local"
			}),
			wantErr: "mutually exclusive",
		},
		{
			name: "zero baud",
			cfg: serial(func(c *Config) {
				c.Serial.Baud = 0
			}),
			wantErr: "baud must be positive",
		},
		{
			name: "http bridge url",
			cfg: func() *Config {
				cfg := Default()
				cfg.Bridge.URL = "http://bridge.local"
				return cfg
			}(),
			wantErr: "ws or wss",
		},
		{
			name: "min above max",
			cfg: serial(func(c *Config) {
				c.Dimmer.MinBrightness = 800
				c.Dimmer.MaxBrightness = 500
			}),
			wantErr: "must be below",
		},
		{
			name: "max above hardware range",
			cfg: serial(func(c *Config) {
				c.Dimmer.MaxBrightness = 1500
			}),
			wantErr: "1..1000",
		},
		{
			name: "warmup above hardware range",
			cfg: serial(func(c *Config) {
				c.Dimmer.WarmupBrightness = 1200
			}),
			wantErr: "warmup_brightness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDimmer_EndpointNotRequired(t *testing.T) {
	cfg := Default()

	if err := ValidateDimmer(cfg); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("Full validation should still require an endpoint")
	}
}

// ---- normalize ----

func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Dimmer.FadeRate = 250
	cfg.Dimmer.UpdateIntervalMs = 0
	cfg.Store.Path = ""

	Normalize(cfg)

	if cfg.Dimmer.FadeRate != shdproto.MaxFadeRate {
		t.Errorf("Fade rate should be clamped to %d, got %d", shdproto.MaxFadeRate, cfg.Dimmer.FadeRate)
	}
	if cfg.Dimmer.UpdateIntervalMs != 10000 {
		t.Errorf("Update interval should default to 10000, got %d", cfg.Dimmer.UpdateIntervalMs)
	}
	if cfg.Store.Path == "" {
		t.Error("Store path should be defaulted")
	}

	cfg.Dimmer.FadeRate = 0
	Normalize(cfg)
	if cfg.Dimmer.FadeRate != 1 {
		t.Errorf("Zero fade rate should become 1, got %d", cfg.Dimmer.FadeRate)
	}

	Normalize(nil) // must not panic
}
