// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import "time"

// Light is the dimmable light entity the device reports to and, during
// calibration, drives. Implementations bridge to whatever owns the
// user-facing state; brightness is normalized to [0, 1].
type Light interface {
	// Brightness returns the current target brightness.
	Brightness() float64

	// SetBrightness moves the target, with a transition length and an
	// explicit on/off. The value must be applied synchronously so that an
	// immediately following Brightness call observes it.
	SetBrightness(brightness float64, transition time.Duration, on bool)
}

// Sink receives one scaled telemetry reading per poll. Power, voltage and
// current each get their own sink; unwired sinks are skipped.
type Sink interface {
	Publish(value float64)
}
