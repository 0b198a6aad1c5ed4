// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import "time"

// FirmwareVersion identifies an STM32 firmware release.
type FirmwareVersion struct {
	Major uint8
	Minor uint8
}

// Config carries the device parameters fixed at construction time.
type Config struct {
	// DeviceID distinguishes this dimmer's persisted state from other
	// devices sharing the same store.
	DeviceID string

	// LeadingEdge selects leading-edge dimming; trailing edge otherwise.
	LeadingEdge bool

	// MinBrightness and MaxBrightness bound the raw brightness sent to the
	// co-processor, on its native 0..1000 scale.
	MinBrightness uint16
	MaxBrightness uint16

	// WarmupBrightness and WarmupTime drive cold-start lamp warming.
	WarmupBrightness uint16
	WarmupTime       uint16

	// FadeRate is the hardware fade speed, 1 fastest. Values above the
	// hardware limit are clamped when encoded.
	FadeRate uint16

	// UpdateInterval is the telemetry polling period.
	UpdateInterval time.Duration

	// Firmware is the expected co-processor firmware version. A mismatch at
	// setup triggers an upgrade when an image and upgrader are wired.
	Firmware FirmwareVersion

	// FirmwareImage is the firmware blob flashed on version mismatch.
	// Leave nil to accept whatever version the co-processor runs.
	FirmwareImage []byte
}

// DefaultConfig returns the configuration matching a stock Shelly Dimmer 2.
func DefaultConfig() Config {
	return Config{
		LeadingEdge:    false,
		MinBrightness:  0,
		MaxBrightness:  1000,
		FadeRate:       1,
		UpdateInterval: DefaultUpdateInterval,
		Firmware:       FirmwareVersion{Major: 51, Minor: 7},
	}
}
