// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package config

import "github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"

// Normalize applies post-validation defaults and clamping. It is
// allowed to mutate the configuration and must be called only after
// Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Dimmer.FadeRate == 0 {
		cfg.Dimmer.FadeRate = 1
	}
	if cfg.Dimmer.FadeRate > shdproto.MaxFadeRate {
		cfg.Dimmer.FadeRate = shdproto.MaxFadeRate
	}

	if cfg.Dimmer.UpdateIntervalMs <= 0 {
		cfg.Dimmer.UpdateIntervalMs = 10000
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath()
	}
}
