// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package config

import (
	"fmt"
	"net/url"
)

// Validate checks configuration correctness. It performs declarative
// validation only and does not mutate the configuration.
func Validate(cfg *Config) error {
	if err := ValidateEndpoint(cfg); err != nil {
		return err
	}
	return ValidateDimmer(cfg)
}

// ValidateEndpoint checks that exactly one endpoint is configured and
// that it is well formed.
func ValidateEndpoint(cfg *Config) error {
	hasSerial := cfg.Serial.Port != ""
	hasBridge := cfg.Bridge.URL != ""

	if hasSerial && hasBridge {
		return fmt.Errorf("serial.port and bridge.url are mutually exclusive")
	}
	if !hasSerial && !hasBridge {
		return fmt.Errorf("either serial.port or bridge.url must be set")
	}

	if hasSerial && cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", cfg.Serial.Baud)
	}

	if hasBridge {
		u, err := url.Parse(cfg.Bridge.URL)
		if err != nil {
			return fmt.Errorf("bridge.url is not a valid URL: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("bridge.url must use the ws or wss scheme, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("bridge.url has no host")
		}
	}

	return nil
}

// ValidateDimmer checks the dimmer parameter ranges. It does not
// require an endpoint, so commands that only touch the persisted state
// can use it on its own.
func ValidateDimmer(cfg *Config) error {
	d := cfg.Dimmer
	if d.MaxBrightness == 0 || d.MaxBrightness > 1000 {
		return fmt.Errorf("dimmer.max_brightness must be in 1..1000, got %d", d.MaxBrightness)
	}
	if d.MinBrightness >= d.MaxBrightness {
		return fmt.Errorf("dimmer.min_brightness (%d) must be below dimmer.max_brightness (%d)",
			d.MinBrightness, d.MaxBrightness)
	}
	if d.WarmupBrightness > 1000 {
		return fmt.Errorf("dimmer.warmup_brightness must be at most 1000, got %d", d.WarmupBrightness)
	}

	return nil
}
