// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/dimmer"
	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/prefs"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Manage the brightness-to-power calibration curve",
	Long: `Manage the per-device calibration curve.

Dimmed lamps rarely respond linearly to the raw brightness setting. A
calibration sweep records the power drawn at each brightness step and
stores a normalized curve; later brightness writes are remapped through
it so the light output tracks the requested level.`,
}

var calibrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Sweep brightness and record a fresh calibration curve",
	Long: `Run a calibration sweep and persist the resulting curve.

The sweep holds the lamp at full brightness while the readings settle,
then steps the level down in 5% increments, averaging ten power samples
at each step. The whole sweep takes a few minutes; the lamp must stay
powered for the duration and will visibly dim as it proceeds.`,
	RunE: runCalibrateRun,
}

var calibrateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored calibration curve",
	RunE:  runCalibrateShow,
}

var calibrateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the stored calibration curve",
	Long: `Discard the stored calibration curve for the device.

The dimmer itself is not contacted; only the persisted state changes.
Subsequent brightness writes pass through unmapped.`,
	RunE: runCalibrateClear,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.AddCommand(calibrateRunCmd)
	calibrateCmd.AddCommand(calibrateShowCmd)
	calibrateCmd.AddCommand(calibrateClearCmd)
}

func runCalibrateRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	light := &memoryLight{brightness: 1}
	dev, connInfo, err := openDevice(cfg, light)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Setup(); err != nil {
		return err
	}

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Starting calibration sweep; the lamp will dim in steps.\n\n")

	if err := dev.StartCalibration(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for dev.Calibrating() {
		select {
		case <-ctx.Done():
			fmt.Printf("\nCalibration aborted; the lamp may be left dimmed.\n")
			return ctx.Err()
		case <-time.After(dev.UpdateInterval()):
		}

		if err := dev.Update(); err != nil {
			fmt.Printf("\nUpdate failed: %v; retrying\n", err)
		}
		fmt.Printf("\rProgress: %3.0f%%", dev.CalibrationProgress()*100)
	}
	fmt.Printf("\rProgress: 100%%\n\n")

	curve := dev.CalibrationCurve()
	if curve[0] == 0 {
		fmt.Println("Sweep produced no usable curve; the stored state is unchanged.")
		return nil
	}

	fmt.Println("Calibration complete. Stored curve:")
	printCurve(curve)
	return nil
}

func runCalibrateShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadOfflineConfig(cmd)
	if err != nil {
		return err
	}

	store, err := prefs.Open(cfg.Store.Path)
	if err != nil {
		return err
	}

	var curve [dimmer.CalibrationPoints]float64
	found, err := store.Load(dimmer.StoreKey(cfg.Dimmer.DeviceID), &curve)
	if err != nil {
		return err
	}
	if !found || curve[0] == 0 {
		fmt.Printf("No calibration curve stored for device %s.\n", deviceName(cfg.Dimmer.DeviceID))
		return nil
	}

	fmt.Printf("Calibration curve for device %s (store: %s):\n\n", deviceName(cfg.Dimmer.DeviceID), store.Path())
	printCurve(curve)
	return nil
}

func runCalibrateClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadOfflineConfig(cmd)
	if err != nil {
		return err
	}

	store, err := prefs.Open(cfg.Store.Path)
	if err != nil {
		return err
	}

	// A zero curve means "not calibrated"; the device persists the same
	// on ClearCalibration.
	var zero [dimmer.CalibrationPoints]float64
	if err := store.Save(dimmer.StoreKey(cfg.Dimmer.DeviceID), zero); err != nil {
		return err
	}

	fmt.Printf("Calibration curve cleared for device %s.\n", deviceName(cfg.Dimmer.DeviceID))
	return nil
}

func printCurve(curve [dimmer.CalibrationPoints]float64) {
	fmt.Println("Brightness  Normalized power")
	for i, v := range curve {
		level := 1 - float64(i)*dimmer.CalibrationStep
		fmt.Printf("%9.0f%%  %.4f\n", level*100, v)
	}
}

func deviceName(id string) string {
	if id == "" {
		return "(default)"
	}
	return fmt.Sprintf("%q", id)
}
