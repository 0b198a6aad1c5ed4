// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/dimmer"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI for controlling the dimmer",
	Long: `Control the dimmer via an interactive terminal UI.

The dashboard polls the co-processor continuously and shows live power,
voltage and current readings next to the brightness state. Brightness
can be adjusted from the keyboard, and a calibration sweep can be
started and watched without leaving the screen.

Tab switches between the control keys and the brightness input.
Supports both serial and WebSocket connections.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// requestKind names a control request the TUI can hand to the device
// worker.
type requestKind int

const (
	reqSetBrightness requestKind = iota
	reqStartCalibration
	reqClearCalibration
)

type deviceRequest struct {
	kind       requestKind
	brightness float64
}

// deviceManager owns the device and drives it from a single goroutine.
// The TUI never touches the device directly; it hands requests over a
// channel and receives state snapshots through the program.
type deviceManager struct {
	dev      *dimmer.Device
	light    *memoryLight
	connInfo string
	p        *tea.Program
	requests chan deviceRequest
	done     chan struct{}
	stopped  chan struct{}
}

func (dm *deviceManager) run() {
	defer close(dm.stopped)
	defer dm.dev.Close()

	interval := dm.dev.UpdateInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dm.p.Send(dm.snapshot("", nil))

	for {
		select {
		case <-dm.done:
			return

		case req := <-dm.requests:
			event, err := dm.apply(req)
			dm.p.Send(dm.snapshot(event, err))

		case <-ticker.C:
			err := dm.dev.Update()
			dm.p.Send(dm.snapshot("", err))
		}

		// Calibration runs on a faster cycle; follow the device.
		if iv := dm.dev.UpdateInterval(); iv != interval {
			interval = iv
			ticker.Reset(interval)
		}
	}
}

func (dm *deviceManager) apply(req deviceRequest) (string, error) {
	switch req.kind {
	case reqSetBrightness:
		dm.light.brightness = req.brightness
		if err := dm.dev.WriteState(); err != nil {
			return "", err
		}
		return fmt.Sprintf("Brightness set to %.0f%% (raw %d)", req.brightness*100, dm.dev.RawBrightness()), nil

	case reqStartCalibration:
		if err := dm.dev.StartCalibration(); err != nil {
			return "", err
		}
		return "Calibration sweep started", nil

	case reqClearCalibration:
		if err := dm.dev.ClearCalibration(); err != nil {
			return "", err
		}
		return "Calibration curve cleared", nil
	}
	return "", nil
}

func (dm *deviceManager) snapshot(event string, err error) deviceStateMsg {
	msg := deviceStateMsg{
		ready:       dm.dev.Ready(),
		version:     dm.dev.VersionString(),
		target:      dm.light.brightness,
		raw:         dm.dev.RawBrightness(),
		calibrating: dm.dev.Calibrating(),
		progress:    dm.dev.CalibrationProgress(),
		curve:       dm.dev.CalibrationCurve(),
		event:       event,
		err:         err,
	}
	msg.telemetry, msg.hasTelemetry = dm.dev.LastTelemetry()
	return msg
}

// request hands a control request to the worker without blocking the
// UI. Requests are dropped when the worker is mid-exchange and the
// queue is full.
func (dm *deviceManager) request(req deviceRequest) {
	select {
	case dm.requests <- req:
	default:
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	light := &memoryLight{}
	dev, connInfo, err := openDevice(cfg, light)
	if err != nil {
		return err
	}

	if err := dev.Setup(); err != nil {
		dev.Close()
		return err
	}

	// Drop slog output while the TUI owns the terminal.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	dm := &deviceManager{
		dev:      dev,
		light:    light,
		connInfo: connInfo,
		requests: make(chan deviceRequest, 4),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	m := initialDashboardModel(dm, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())
	dm.p = p

	go dm.run()

	_, runErr := p.Run()
	close(dm.done)
	<-dm.stopped
	if runErr != nil {
		return fmt.Errorf("TUI error: %v", runErr)
	}
	return nil
}
