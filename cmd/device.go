// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/config"
	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/dimmer"
	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/prefs"
)

// memoryLight is the light state stand-in for CLI commands. The device
// core reads the target level back from it when writing state, and
// pushes levels into it during calibration.
type memoryLight struct {
	brightness float64
}

func (l *memoryLight) Brightness() float64 { return l.brightness }

func (l *memoryLight) SetBrightness(brightness float64, transition time.Duration, on bool) {
	l.brightness = brightness
}

// deviceConfig converts the file configuration into the device core's
// construction parameters, loading the firmware image when one is
// named.
func deviceConfig(cfg *config.Config) (dimmer.Config, error) {
	dc := dimmer.Config{
		DeviceID:         cfg.Dimmer.DeviceID,
		LeadingEdge:      cfg.Dimmer.LeadingEdge,
		MinBrightness:    cfg.Dimmer.MinBrightness,
		MaxBrightness:    cfg.Dimmer.MaxBrightness,
		WarmupBrightness: cfg.Dimmer.WarmupBrightness,
		WarmupTime:       cfg.Dimmer.WarmupTimeMs,
		FadeRate:         cfg.Dimmer.FadeRate,
		UpdateInterval:   time.Duration(cfg.Dimmer.UpdateIntervalMs) * time.Millisecond,
		Firmware: dimmer.FirmwareVersion{
			Major: cfg.Dimmer.Firmware.Major,
			Minor: cfg.Dimmer.Firmware.Minor,
		},
	}

	if cfg.Dimmer.Firmware.Image != "" {
		image, err := os.ReadFile(cfg.Dimmer.Firmware.Image)
		if err != nil {
			return dimmer.Config{}, fmt.Errorf("failed to read firmware image: %v", err)
		}
		dc.FirmwareImage = image
	}

	return dc, nil
}

// openDevice opens the configured endpoint and builds a device around
// it, with the calibration store wired. The caller owns Close.
func openDevice(cfg *config.Config, light dimmer.Light) (*dimmer.Device, string, error) {
	dc, err := deviceConfig(cfg)
	if err != nil {
		return nil, "", err
	}

	transport, connInfo, err := OpenTransport(cfg)
	if err != nil {
		return nil, "", err
	}

	dev := dimmer.NewDevice(transport, dc)
	if light != nil {
		dev.SetLight(light)
	}

	store, err := prefs.Open(cfg.Store.Path)
	if err != nil {
		transport.Close()
		return nil, "", err
	}
	dev.SetStore(store)

	return dev, connInfo, nil
}
