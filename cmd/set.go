// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <brightness>",
	Short: "Set the dimmer brightness",
	Long: `Initialize the dimmer and set its brightness.

Brightness is a value between 0 and 1, or a percentage with a % suffix:

  shellydim set 0.75 --port /dev/ttyUSB0
  shellydim set 40% --port /dev/ttyUSB0

When a calibration curve is stored for the device, the level is remapped
through it so the perceived output tracks the requested level.`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

// parseBrightness accepts a 0..1 fraction or a percentage with a %
// suffix and returns the fraction.
func parseBrightness(arg string) (float64, error) {
	s := strings.TrimSpace(arg)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid brightness %q", arg)
	}
	if percent {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("brightness %q is out of range 0..1", arg)
	}
	return v, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	brightness, err := parseBrightness(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	light := &memoryLight{brightness: brightness}
	dev, _, err := openDevice(cfg, light)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Setup(); err != nil {
		return err
	}

	if err := dev.WriteState(); err != nil {
		return err
	}

	fmt.Printf("Brightness set to %.0f%% (raw %d)\n", brightness*100, dev.RawBrightness())
	return nil
}
