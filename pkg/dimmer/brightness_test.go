// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import (
	"errors"
	"math"
	"testing"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

// quadraticCurve builds a calibration curve for a lamp whose power grows
// with the square of the raw brightness.
func quadraticCurve() [CalibrationPoints]float64 {
	var curve [CalibrationPoints]float64
	for i := range curve {
		v := 1 - float64(i)*CalibrationStep
		curve[i] = v * v
	}
	return curve
}

// ============================================================
// Brightness Conversion Tests
// ============================================================

func TestConvertBrightness(t *testing.T) {
	tests := []struct {
		name       string
		brightness float64
		min, max   uint16
		expected   uint16
	}{
		{"off", 0, 0, 1000, 0},
		{"full", 1, 0, 1000, 1000},
		{"half", 0.5, 0, 1000, 500},
		{"off ignores minimum", 0, 200, 1000, 0},
		{"full respects maximum", 1, 0, 600, 600},
		{"scales into limits", 0.5, 200, 700, 450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MinBrightness = tt.min
			cfg.MaxBrightness = tt.max
			dev := NewDevice(newDimmerSim(), cfg)

			if got := dev.convertBrightness(tt.brightness); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

// ============================================================
// Brightness Remap Tests
// ============================================================

func TestRemapBrightness_NoCurvePassthrough(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	if got := dev.remapBrightness(0.4); got != 0.4 {
		t.Errorf("Without a curve the value should pass through, got %f", got)
	}
}

func TestRemapBrightness_Endpoints(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	dev.curve = quadraticCurve()

	if got := dev.remapBrightness(0); got != 0 {
		t.Errorf("Zero should pass through, got %f", got)
	}
	if got := dev.remapBrightness(1); got != 1 {
		t.Errorf("Full brightness should pass through, got %f", got)
	}
}

func TestRemapBrightness_DuringCalibration(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	dev.curve = quadraticCurve()
	dev.cal = &calibrationRun{}

	if got := dev.remapBrightness(0.4); got != 0.4 {
		t.Errorf("Values should pass through while a sweep runs, got %f", got)
	}
}

func TestRemapBrightness_IdentityCurve(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	for i := range dev.curve {
		dev.curve[i] = 1 - float64(i)*CalibrationStep
	}

	for _, b := range []float64{0.12, 0.37, 0.51, 0.93} {
		if got := dev.remapBrightness(b); math.Abs(got-b) > 1e-9 {
			t.Errorf("A linear lamp should map %f to itself, got %f", b, got)
		}
	}
}

func TestRemapBrightness_QuadraticCurve(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	dev.curve = quadraticCurve()

	tests := []struct {
		brightness float64
		expected   float64
	}{
		// 0.75 falls between curve[3]=0.7225 and curve[2]=0.81 and lands
		// in the 0.85..0.90 segment.
		{0.75, 0.8657142857142857},
		// 0.3 falls between curve[10]=0.25 and curve[9]=0.3025.
		{0.3, 0.5476190476190476},
	}

	for _, tt := range tests {
		got := dev.remapBrightness(tt.brightness)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("remap(%f): expected %f, got %f", tt.brightness, tt.expected, got)
		}
		if got <= tt.brightness {
			t.Errorf("A square-law lamp needs extra drive at %f, got %f", tt.brightness, got)
		}
	}
}

func TestRemapBrightness_OutsideRange(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	for i := range dev.curve {
		dev.curve[i] = 0.9 - float64(i)*0.04
	}

	if got := dev.remapBrightness(0.95); got != 0.95 {
		t.Errorf("Values above the curve should pass through, got %f", got)
	}
	if got := dev.remapBrightness(0.1); got != 0.1 {
		t.Errorf("Values below the curve should pass through, got %f", got)
	}
}

// ============================================================
// WriteState Tests
// ============================================================

func TestWriteState_NotReady(t *testing.T) {
	dev := NewDevice(newDimmerSim(), DefaultConfig())
	dev.SetLight(&fakeLight{brightness: 0.5})

	if err := dev.WriteState(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}

func TestWriteState_Deduplicates(t *testing.T) {
	sim := newDimmerSim()
	light := &fakeLight{brightness: 0.5}

	dev := NewDevice(sim, DefaultConfig())
	dev.SetLight(light)
	if err := dev.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	base := countCmd(sim.writes, shdproto.CmdSwitch)

	if err := dev.WriteState(); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}
	if sim.brightness != 500 {
		t.Errorf("Expected raw 500, got %d", sim.brightness)
	}
	if got := countCmd(sim.writes, shdproto.CmdSwitch); got != base+1 {
		t.Fatalf("Expected one switch command, got %d", got-base)
	}

	// Same value again: nothing should go out.
	if err := dev.WriteState(); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}
	if got := countCmd(sim.writes, shdproto.CmdSwitch); got != base+1 {
		t.Errorf("Unchanged brightness should not be resent, got %d commands", got-base)
	}

	light.brightness = 0.7
	if err := dev.WriteState(); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}
	if sim.brightness != 700 {
		t.Errorf("Expected raw 700, got %d", sim.brightness)
	}
	if got := countCmd(sim.writes, shdproto.CmdSwitch); got != base+2 {
		t.Errorf("Changed brightness should be sent, got %d commands", got-base)
	}
}

func TestWriteState_NoLight(t *testing.T) {
	sim := newDimmerSim()
	dev := setupDevice(t, sim, DefaultConfig())

	frames := len(sim.writes)
	if err := dev.WriteState(); err != nil {
		t.Fatalf("WriteState without a light should be a no-op, got %v", err)
	}
	if len(sim.writes) != frames {
		t.Error("WriteState without a light should not touch the transport")
	}
}
