// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

// Package dimmer is the control core for the STM32 dimming co-processor
// in Shelly Dimmer 1/2 hardware: command/reply exchanges over a byte
// transport, brightness control with calibration-curve remapping, and a
// power-curve calibration sweep whose result survives restarts.
//
// The core is deliberately single-threaded. Nothing in this package
// starts a goroutine or takes a lock; a Device must be driven from one
// goroutine, the way the firmware expects one serial master. Transports
// and collaborators may do whatever they like internally.
package dimmer

import "time"

// Command exchange timing. The firmware answers well inside the timeout
// under normal conditions; retries paper over glitches around mains
// zero-crossing interrupts.
const (
	AckTimeout       = 200 * time.Millisecond
	MaxRetries       = 3
	readPollInterval = time.Millisecond
)

// Calibration sweep parameters
const (
	CalibrationStep        = 0.05 // brightness decrease per curve point
	CalibrationPoints      = 20   // curve entries, covering (0.0, 1.0]
	CalibrationSamples     = 10   // power readings averaged per point
	CalibrationWarmupTicks = 20   // polls discarded before the sweep
	calibrationInterval    = time.Second
)

// DefaultUpdateInterval is the poll cadence used when the configuration
// does not set one
const DefaultUpdateInterval = 10 * time.Second
