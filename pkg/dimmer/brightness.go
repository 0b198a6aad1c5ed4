// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import (
	"log/slog"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

// WriteState pushes the light's target brightness to the hardware. The
// value passes through the calibration curve, converts to the raw 0..1000
// scale and goes out only when it differs from the last raw value sent.
func (d *Device) WriteState() error {
	if !d.ready {
		return ErrNotReady
	}
	if d.light == nil {
		return nil
	}

	brightness := d.remapBrightness(d.light.Brightness())
	raw := d.convertBrightness(brightness)
	if raw == d.brightness {
		return nil
	}

	slog.Debug("Setting brightness", "raw", raw)
	return d.sendBrightness(raw)
}

// sendBrightness transmits a switch command. The cached raw value updates
// whether or not the co-processor acknowledged; the stock firmware applies
// brightness before answering.
func (d *Device) sendBrightness(raw uint16) error {
	frame, err := d.exchange.Send(shdproto.CmdSwitch, shdproto.SwitchPayload(raw))
	d.brightness = raw
	if err != nil {
		return err
	}
	d.handleFrame(frame)
	return nil
}

// remapBrightness maps a target brightness through the calibration curve
// so perceived output scales evenly. The value passes through untouched
// while no curve is loaded, while a sweep is running, and at the exact
// endpoints 0 and 1.
func (d *Device) remapBrightness(brightness float64) float64 {
	if d.cal != nil || d.curve[0] == 0 || brightness == 0 || brightness == 1 {
		return brightness
	}

	pos := 0
	for pos < CalibrationPoints && d.curve[pos] >= brightness {
		pos++
	}
	if pos == 0 || pos == CalibrationPoints {
		slog.Warn("Brightness outside of calibrated range", "brightness", brightness)
		return brightness
	}

	// The curve is sorted descending, so the value falls between points
	// pos and pos-1. That segment covers one brightness step.
	start := 1 - float64(pos)*CalibrationStep
	return remap(brightness, d.curve[pos], d.curve[pos-1], start, start+CalibrationStep)
}

// convertBrightness converts a normalized brightness to the raw hardware
// scale, honoring the configured limits. Zero stays zero so the lamp
// turns off completely even with a minimum set.
func (d *Device) convertBrightness(brightness float64) uint16 {
	if brightness == 0 {
		return 0
	}
	return uint16(remap(brightness, 0, 1, float64(d.cfg.MinBrightness), float64(d.cfg.MaxBrightness)))
}

// remap linearly maps value from one range onto another.
func remap(value, inMin, inMax, outMin, outMax float64) float64 {
	return (value-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
