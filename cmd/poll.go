// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the dimmer for a telemetry snapshot",
	Long: `Request one telemetry frame and print the decoded readings.

The co-processor reports its brightness setting together with raw power,
voltage and current counters; the counters are scaled into physical
units.`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, connInfo, err := openDevice(cfg, nil)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Poll(); err != nil {
		return fmt.Errorf("failed to poll: %v", err)
	}

	telemetry, ok := dev.LastTelemetry()
	if !ok {
		return fmt.Errorf("poll reply carried no readable telemetry")
	}

	fmt.Printf("Connection: %s\n\n", connInfo)
	fmt.Printf("Hardware version: %d\n", telemetry.HWVersion)
	fmt.Printf("Brightness:       %d / %d\n", telemetry.Brightness, shdproto.MaxBrightness)
	fmt.Printf("Power:            %.2f W (raw %d)\n", telemetry.Power, telemetry.PowerRaw)
	fmt.Printf("Voltage:          %.2f V (raw %d)\n", telemetry.Voltage, telemetry.VoltageRaw)
	fmt.Printf("Current:          %.3f A (raw %d)\n", telemetry.Current, telemetry.CurrentRaw)
	if telemetry.FadeRate > 0 {
		fmt.Printf("Fade rate:        %d\n", telemetry.FadeRate)
	}
	return nil
}
