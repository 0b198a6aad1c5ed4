// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

// Package config loads and checks the YAML configuration file. Loading,
// validation and normalization are separate steps: Load only decodes,
// Validate only checks, Normalize fills defaults and clamps values.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaud is the UART speed of the dimming co-processor.
const DefaultBaud = 115200

type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Bridge BridgeConfig `yaml:"bridge"`
	Dimmer DimmerConfig `yaml:"dimmer"`
	Store  StoreConfig  `yaml:"store"`
}

// ---- ENDPOINTS ----

// SerialConfig selects a directly attached serial port.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// BridgeConfig selects a websocket serial bridge instead of a local
// port. The password is never stored in the file; it comes from the
// environment or an interactive prompt.
type BridgeConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
}

// ---- DIMMER ----

type DimmerConfig struct {
	DeviceID         string         `yaml:"device_id"`
	LeadingEdge      bool           `yaml:"leading_edge"`
	MinBrightness    uint16         `yaml:"min_brightness"`
	MaxBrightness    uint16         `yaml:"max_brightness"`
	WarmupBrightness uint16         `yaml:"warmup_brightness"`
	WarmupTimeMs     uint16         `yaml:"warmup_time_ms"`
	FadeRate         uint16         `yaml:"fade_rate"`
	UpdateIntervalMs int            `yaml:"update_interval_ms"`
	Firmware         FirmwareConfig `yaml:"firmware"`
}

// FirmwareConfig names the expected co-processor firmware. When Image
// points at a firmware blob, a version mismatch at startup triggers a
// reflash.
type FirmwareConfig struct {
	Major uint8  `yaml:"major"`
	Minor uint8  `yaml:"minor"`
	Image string `yaml:"image"`
}

// ---- PERSISTENCE ----

type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given. The
// endpoint is deliberately left empty; it must come from the file or
// the command line.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{Baud: DefaultBaud},
		Dimmer: DimmerConfig{
			MaxBrightness:    1000,
			FadeRate:         1,
			UpdateIntervalMs: 10000,
			Firmware:         FirmwareConfig{Major: 51, Minor: 7},
		},
		Store: StoreConfig{Path: DefaultStorePath()},
	}
}

// DefaultStorePath returns the calibration store location under the
// user's home directory.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shellydim-calibration.cbor"
	}
	return filepath.Join(home, ".shellydim", "calibration.cbor")
}

// Load reads and decodes the YAML configuration at path, on top of the
// defaults. Unknown fields are rejected. The result is not validated;
// call Validate and Normalize before use.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
