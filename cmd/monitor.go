// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

var monitorStatsInterval int

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display decoded frames in human-readable format",
	Long: `Continuously decode and display dimmer protocol frames as they arrive.

Each frame is shown with timestamp, command, sequence number and decoded
payload data. The command never transmits, so it is safe to run against
a link another controller is driving.

With --stats, a frame and decode-error summary is printed at the given
interval. Useful for judging line quality on long runs.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats", 0, "Print statistics every N seconds (0 to disable)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	transport, connInfo, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer transport.Close()

	fmt.Printf("Shellydim - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := shdproto.NewDecoder()
	stats := shdproto.NewStatistics()
	lastProbe := time.Now()
	lastStats := time.Now()

	for {
		if monitorStatsInterval > 0 && time.Since(lastStats) >= time.Duration(monitorStatsInterval)*time.Second {
			fmt.Print(stats.String())
			lastStats = time.Now()
		}

		if transport.Available() == 0 {
			// A dead bridge reads as permanent silence; probe it once
			// in a while so the command can exit instead.
			if time.Since(lastProbe) > time.Second {
				if _, err := transport.ReadByte(); err == ErrConnectionClosed {
					log.Printf("Connection closed")
					return nil
				}
				lastProbe = time.Now()
			}
			time.Sleep(time.Millisecond)
			continue
		}

		b, err := transport.ReadByte()
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		frame, err := decoder.DecodeByte(b)
		stats.Update(frame, err)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}
		if frame != nil {
			fmt.Print(shdproto.FormatFrame(frame))
		}
	}
}
