// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

// Device drives one Shelly Dimmer co-processor over a transport. Not safe
// for concurrent use; make all calls from a single goroutine.
type Device struct {
	transport Transport
	exchange  *exchange
	cfg       Config

	light       Light
	store       CurveStore
	upgrader    FirmwareUpgrader
	powerSink   Sink
	voltageSink Sink
	currentSink Sink

	ready      bool
	version    FirmwareVersion
	brightness uint16

	telemetry    shdproto.Telemetry
	hasTelemetry bool
	lastPower    float64
	hasPower     bool

	curve [CalibrationPoints]float64
	cal   *calibrationRun

	updateInterval      time.Duration
	savedUpdateInterval time.Duration
}

// NewDevice creates a dimmer over the given transport. Zero-valued config
// fields fall back to stock hardware defaults.
func NewDevice(transport Transport, cfg Config) *Device {
	if cfg.MaxBrightness == 0 {
		cfg.MaxBrightness = shdproto.MaxBrightness
	}
	if cfg.FadeRate == 0 {
		cfg.FadeRate = 1
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}

	return &Device{
		transport:      transport,
		exchange:       newExchange(transport),
		cfg:            cfg,
		updateInterval: cfg.UpdateInterval,
	}
}

// SetLight wires the light entity the device reads brightness from.
func (d *Device) SetLight(light Light) { d.light = light }

// SetStore wires persistent storage for the calibration curve.
func (d *Device) SetStore(store CurveStore) { d.store = store }

// SetUpgrader wires the firmware upgrader used on version mismatch.
func (d *Device) SetUpgrader(up FirmwareUpgrader) { d.upgrader = up }

// SetPowerSink wires the output for scaled power readings.
func (d *Device) SetPowerSink(s Sink) { d.powerSink = s }

// SetVoltageSink wires the output for scaled voltage readings.
func (d *Device) SetVoltageSink(s Sink) { d.voltageSink = s }

// SetCurrentSink wires the output for scaled current readings.
func (d *Device) SetCurrentSink(s Sink) { d.currentSink = s }

// Setup brings the co-processor to a known state: verifies the firmware
// version, pushes dimming settings, takes an initial telemetry reading and
// loads any stored calibration curve. The device accepts state changes
// only after Setup returns without error.
func (d *Device) Setup() error {
	if err := d.checkFirmware(); err != nil {
		return err
	}
	if err := d.SendSettings(); err != nil {
		slog.Warn("Failed to push settings", "error", err)
	}
	if err := d.Poll(); err != nil {
		slog.Warn("Initial poll failed", "error", err)
	}
	d.loadCalibration()
	d.ready = true
	return nil
}

// resetLink puts the transport back into application-firmware framing
// and drops whatever stale bytes are buffered. The ROM bootloader leaves
// the link at even parity, so this runs before first contact and again
// after an upgrade.
func (d *Device) resetLink() {
	if err := d.transport.SetParity(ParityNone); err != nil {
		slog.Warn("Failed to reset link parity", "error", err)
	}
	d.exchange.Reset()
}

// checkFirmware reads the co-processor version and reflashes it when the
// configured image differs from what is running. Setup fails only when the
// co-processor does not answer at all.
func (d *Device) checkFirmware() error {
	d.resetLink()

	version, err := d.QueryVersion()
	if err != nil {
		return fmt.Errorf("co-processor is not responding: %w", err)
	}
	slog.Info("Co-processor firmware", "version", d.VersionString())

	want := d.cfg.Firmware
	if version == want {
		return nil
	}
	if len(d.cfg.FirmwareImage) == 0 || d.upgrader == nil {
		slog.Warn("Unexpected firmware version, continuing anyway",
			"have", fmt.Sprintf("%d.%d", version.Major, version.Minor),
			"want", fmt.Sprintf("%d.%d", want.Major, want.Minor))
		return nil
	}

	slog.Warn("Upgrading co-processor firmware",
		"have", fmt.Sprintf("%d.%d", version.Major, version.Minor),
		"want", fmt.Sprintf("%d.%d", want.Major, want.Minor))
	if err := d.upgrader.Upgrade(d.cfg.FirmwareImage); err != nil {
		return fmt.Errorf("firmware upgrade failed: %w", err)
	}

	d.resetLink()
	if _, err := d.QueryVersion(); err != nil {
		return fmt.Errorf("co-processor is not responding after upgrade: %w", err)
	}
	slog.Info("Co-processor firmware after upgrade", "version", d.VersionString())
	return nil
}

// Update runs one poll cycle and advances calibration when a sweep is in
// progress.
func (d *Device) Update() error {
	if !d.ready {
		return ErrNotReady
	}

	d.hasPower = false
	if err := d.Poll(); err != nil {
		return err
	}
	if d.cal != nil {
		d.calibrationTick()
	}
	return nil
}

// Run polls the device until the context is cancelled. The poll period
// follows UpdateInterval, including changes made while running.
func (d *Device) Run(ctx context.Context) error {
	interval := d.updateInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Update(); err != nil {
				slog.Warn("Update cycle failed", "error", err)
			}
			if d.updateInterval != interval {
				interval = d.updateInterval
				ticker.Reset(interval)
				slog.Debug("Update interval changed", "interval", interval)
			}
		}
	}
}

// Poll requests a telemetry reading.
func (d *Device) Poll() error {
	frame, err := d.exchange.Send(shdproto.CmdPoll, nil)
	if err != nil {
		return err
	}
	d.handleFrame(frame)
	return nil
}

// QueryVersion asks the co-processor for its firmware version and records
// the answer.
func (d *Device) QueryVersion() (FirmwareVersion, error) {
	frame, err := d.exchange.Send(shdproto.CmdVersion, nil)
	if err != nil {
		return FirmwareVersion{}, err
	}
	d.handleFrame(frame)
	return d.version, nil
}

// SendSettings pushes the dimming configuration, then the current
// brightness. The co-processor resets brightness when settings change, so
// the separate switch command restores it.
func (d *Device) SendSettings() error {
	s := shdproto.Settings{
		Brightness:       d.brightness,
		LeadingEdge:      d.cfg.LeadingEdge,
		FadeRate:         d.cfg.FadeRate,
		WarmupBrightness: d.cfg.WarmupBrightness,
		WarmupTime:       d.cfg.WarmupTime,
	}

	frame, err := d.exchange.Send(shdproto.CmdSettings, shdproto.SettingsPayload(s))
	if err != nil {
		return err
	}
	d.handleFrame(frame)
	return d.sendBrightness(d.brightness)
}

// handleFrame interprets a reply and folds it into device state. Decode
// failures are logged and swallowed; the exchange already succeeded.
func (d *Device) handleFrame(frame *shdproto.Frame) {
	switch frame.Cmd {
	case shdproto.CmdPoll:
		t, err := shdproto.DecodeTelemetry(frame.Payload)
		if err != nil {
			slog.Warn("Failed to decode telemetry", "error", err)
			return
		}
		d.telemetry = *t
		d.hasTelemetry = true
		d.lastPower = t.Power
		d.hasPower = true
		d.publishTelemetry(t)

	case shdproto.CmdVersion:
		major, minor, err := shdproto.DecodeVersion(frame.Payload)
		if err != nil {
			slog.Warn("Failed to decode version reply", "error", err)
			return
		}
		d.version = FirmwareVersion{Major: major, Minor: minor}

	case shdproto.CmdSwitch, shdproto.CmdSettings:
		if err := shdproto.DecodeAck(frame.Payload); err != nil {
			slog.Warn("Command was not acknowledged",
				"cmd", shdproto.FormatCommand(frame.Cmd),
				"error", err)
		}

	default:
		slog.Debug("Unhandled frame", "cmd", shdproto.FormatCommand(frame.Cmd))
	}
}

func (d *Device) publishTelemetry(t *shdproto.Telemetry) {
	if d.powerSink != nil {
		d.powerSink.Publish(t.Power)
	}
	if d.voltageSink != nil {
		d.voltageSink.Publish(t.Voltage)
	}
	if d.currentSink != nil {
		d.currentSink.Publish(t.Current)
	}
}

// Ready reports whether setup completed.
func (d *Device) Ready() bool { return d.ready }

// Version returns the co-processor firmware version read during setup.
func (d *Device) Version() FirmwareVersion { return d.version }

// VersionString formats the firmware version as "major.minor".
func (d *Device) VersionString() string {
	return fmt.Sprintf("%d.%d", d.version.Major, d.version.Minor)
}

// LastTelemetry returns the most recent poll reading, when there is one.
func (d *Device) LastTelemetry() (shdproto.Telemetry, bool) {
	return d.telemetry, d.hasTelemetry
}

// RawBrightness returns the last raw brightness value sent to the
// hardware, on the 0..1000 scale.
func (d *Device) RawBrightness() uint16 { return d.brightness }

// UpdateInterval returns the current poll period. Calibration shortens it
// for the duration of the sweep.
func (d *Device) UpdateInterval() time.Duration { return d.updateInterval }

// DumpConfig logs the device configuration and firmware version.
func (d *Device) DumpConfig() {
	slog.Info("Shelly Dimmer configuration",
		"device_id", d.cfg.DeviceID,
		"firmware", d.VersionString(),
		"leading_edge", d.cfg.LeadingEdge,
		"min_brightness", d.cfg.MinBrightness,
		"max_brightness", d.cfg.MaxBrightness,
		"warmup_brightness", d.cfg.WarmupBrightness,
		"warmup_time", d.cfg.WarmupTime,
		"fade_rate", d.cfg.FadeRate,
		"update_interval", d.updateInterval)
}

// Close releases the transport. The device refuses further state changes.
func (d *Device) Close() error {
	d.ready = false
	return d.transport.Close()
}
