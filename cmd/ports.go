// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports on this machine",
	Long: `List the serial ports the operating system reports, with USB vendor
and product identifiers where available.

Useful for finding the --port value for a USB-to-UART adapter wired to
the dimmer board.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("failed to enumerate serial ports: %v", err)
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}

	for _, port := range ports {
		if port.IsUSB {
			fmt.Printf("%-24s USB %s:%s", port.Name, port.VID, port.PID)
			if port.SerialNumber != "" {
				fmt.Printf(" serial=%s", port.SerialNumber)
			}
			fmt.Println()
		} else {
			fmt.Println(port.Name)
		}
	}
	return nil
}
