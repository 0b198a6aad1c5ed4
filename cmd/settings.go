// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Push the dimming settings to the co-processor",
	Long: `Initialize the dimmer and push the configured dimming settings.

Settings cover the dimming edge (leading or trailing), the brightness
limits, warm-up behavior and the fade rate. They come from the config
file; every command that initializes the device also applies them, so
this command exists to push a changed configuration without touching
brightness.`,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, connInfo, err := openDevice(cfg, nil)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Setup(); err != nil {
		return err
	}

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("STM32 firmware: %s\n", dev.VersionString())
	dev.DumpConfig()
	return nil
}
