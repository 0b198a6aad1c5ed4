// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Query the co-processor firmware version",
	Long: `Query the STM32 co-processor for the firmware version it is running.

No settings are pushed and no state is changed; this is the quickest way
to check the link is alive.`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, connInfo, err := openDevice(cfg, nil)
	if err != nil {
		return err
	}
	defer dev.Close()

	version, err := dev.QueryVersion()
	if err != nil {
		return fmt.Errorf("failed to query version: %v", err)
	}

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("STM32 firmware: %d.%d\n", version.Major, version.Minor)
	return nil
}
