// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import (
	"fmt"
	"log/slog"
	"sort"
)

// calibrationRun tracks an in-flight calibration sweep. Negative steps are
// warm-up ticks at full brightness; steps 0 and up collect power samples.
type calibrationRun struct {
	step        int
	brightness  float64
	samples     [CalibrationSamples]float64
	sampleCount int
	data        [CalibrationPoints]float64
}

// Calibrating reports whether a calibration sweep is in progress.
func (d *Device) Calibrating() bool { return d.cal != nil }

// CalibrationCurve returns the active remap curve. All zeros when none is
// loaded.
func (d *Device) CalibrationCurve() [CalibrationPoints]float64 { return d.curve }

// CalibrationProgress reports sweep completion in [0, 1].
func (d *Device) CalibrationProgress() float64 {
	cal := d.cal
	if cal == nil {
		return 0
	}

	total := float64(CalibrationWarmupTicks + CalibrationPoints*CalibrationSamples)
	var done float64
	if cal.step < 0 {
		done = float64(CalibrationWarmupTicks + cal.step)
	} else {
		done = float64(CalibrationWarmupTicks + cal.step*CalibrationSamples + cal.sampleCount)
	}
	return done / total
}

// StartCalibration begins a power sweep that measures the lamp response
// curve. The sweep holds full brightness through a warm-up period, then
// steps brightness down while sampling power, and stores the normalized
// curve when done. Polling speeds up for the duration of the sweep.
//
// The device drives the light itself while the sweep runs; callers must
// not move brightness until Calibrating reports false again.
func (d *Device) StartCalibration() error {
	if !d.ready {
		return ErrNotReady
	}
	if d.cal != nil {
		return ErrCalibrationRunning
	}

	slog.Info("Starting brightness calibration",
		"points", CalibrationPoints,
		"samples_per_point", CalibrationSamples)

	d.cal = &calibrationRun{
		step:       -CalibrationWarmupTicks,
		brightness: 1,
	}
	d.savedUpdateInterval = d.updateInterval
	d.updateInterval = calibrationInterval

	if err := d.setBrightnessNoTransition(1); err != nil {
		slog.Warn("Failed to set full brightness for calibration", "error", err)
	}
	return nil
}

// ClearCalibration drops the active curve and overwrites the stored one.
func (d *Device) ClearCalibration() error {
	if d.cal != nil {
		return ErrCalibrationRunning
	}

	d.curve = [CalibrationPoints]float64{}
	d.saveCalibration()
	slog.Info("Calibration curve cleared")
	return nil
}

// calibrationTick advances the sweep by one polled power reading.
func (d *Device) calibrationTick() {
	if !d.hasPower {
		slog.Debug("No power reading, calibration step deferred")
		return
	}

	cal := d.cal
	if cal.step < 0 {
		// Warm-up: hold full brightness until the lamp output settles.
		cal.step++
		return
	}

	cal.samples[cal.sampleCount] = d.lastPower
	cal.sampleCount++
	if cal.sampleCount == CalibrationSamples {
		d.completeCalibrationStep()
	}
}

// completeCalibrationStep folds the collected samples into one curve point
// and moves the sweep to the next brightness.
func (d *Device) completeCalibrationStep() {
	cal := d.cal

	var sum float64
	for _, s := range cal.samples {
		sum += s
	}
	cal.data[cal.step] = sum / CalibrationSamples

	slog.Debug("Calibration step complete",
		"step", cal.step,
		"brightness", cal.brightness,
		"power", cal.data[cal.step])

	cal.step++
	cal.sampleCount = 0
	if cal.step == CalibrationPoints {
		d.finishCalibration()
		return
	}

	cal.brightness -= CalibrationStep
	if err := d.setBrightnessNoTransition(cal.brightness); err != nil {
		slog.Warn("Failed to set calibration brightness", "error", err)
	}
}

// finishCalibration normalizes the measured sweep into the active curve,
// persists it and restores normal operation.
func (d *Device) finishCalibration() {
	data := d.cal.data
	d.cal = nil

	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if hi == lo {
		slog.Warn("Calibration produced a flat curve, discarding", "power", hi)
	} else {
		sort.Sort(sort.Reverse(sort.Float64Slice(data[:])))
		for i, v := range data {
			data[i] = remap(v, lo, hi, 0, 1)
		}
		d.curve = data
		d.saveCalibration()
		slog.Info("Calibration complete", "curve", d.curve)
	}

	if err := d.setBrightnessNoTransition(1); err != nil {
		slog.Warn("Failed to restore brightness after calibration", "error", err)
	}

	d.updateInterval = d.savedUpdateInterval
	if d.updateInterval == 0 {
		d.updateInterval = DefaultUpdateInterval
	}
}

// setBrightnessNoTransition forces the light to a brightness immediately
// and pushes it to the hardware in the same call.
func (d *Device) setBrightnessNoTransition(brightness float64) error {
	if d.light != nil {
		d.light.SetBrightness(brightness, 0, brightness > 0)
	}
	return d.WriteState()
}

// saveCalibration writes the active curve to the store.
func (d *Device) saveCalibration() {
	if d.store == nil {
		slog.Warn("No store wired, calibration curve will not survive restarts")
		return
	}

	key := StoreKey(d.cfg.DeviceID)
	if err := d.store.Save(key, d.curve); err != nil {
		slog.Warn("Failed to save calibration curve", "error", err)
	}
}

// loadCalibration restores a previously stored curve, when there is one.
func (d *Device) loadCalibration() {
	if d.store == nil {
		return
	}

	key := StoreKey(d.cfg.DeviceID)
	var curve [CalibrationPoints]float64
	found, err := d.store.Load(key, &curve)
	if err != nil {
		slog.Warn("Failed to load calibration curve", "error", err)
		return
	}
	if !found {
		slog.Debug("No stored calibration curve")
		return
	}

	d.curve = curve
	slog.Info("Loaded calibration curve", "key", fmt.Sprintf("0x%08X", key))
}
