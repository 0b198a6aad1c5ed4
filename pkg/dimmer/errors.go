// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import "errors"

var (
	// ErrNoReply means every transmission attempt timed out without a
	// matching reply frame
	ErrNoReply = errors.New("no reply from dimmer")

	// ErrNotReady means the device has not completed Setup
	ErrNotReady = errors.New("dimmer not initialized")

	// ErrCalibrationRunning guards operations that must not touch the
	// curve while a sweep is in progress
	ErrCalibrationRunning = errors.New("calibration already running")
)
