// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var pingCount int

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by sending repeated VERSION queries",
	Long: `Send VERSION queries to the co-processor and measure round-trip times.

VERSION is the cheapest exchange the firmware supports (a two byte
reply), so this is the closest thing the protocol has to a ping. Each
query runs under the standard retry envelope; a query that exhausts its
retries counts as lost.

This is useful for verifying:
  - The serial port or WebSocket bridge is reachable
  - HTTP Basic authentication works (bridge connections)
  - The co-processor is alive and answering

Exit codes:
  0 - All queries answered
  1 - One or more queries lost
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of queries to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, connInfo, err := openDevice(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer dev.Close()

	fmt.Printf("Shellydim - Link Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Count: %d queries\n\n", pingCount)

	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Query %d/%d: ", i, pingCount)

		startTime := time.Now()
		version, err := dev.QueryVersion()
		rtt := time.Since(startTime)

		if err != nil {
			fmt.Printf("LOST: %v\n", err)
			failCount++
		} else {
			fmt.Printf("reply firmware=%d.%d, rtt=%v\n", version.Major, version.Minor, rtt.Round(time.Millisecond))
			successCount++
		}

		// Small delay between queries
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Query statistics ---\n")
	fmt.Printf("%d queries sent, %d replies received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)*100/float64(pingCount))

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
