// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

var linkTestTimeout int

var linkTestCmd = &cobra.Command{
	Use:   "linktest",
	Short: "Test the connection by waiting for a valid frame",
	Long: `Wait for a valid dimmer protocol frame on the connection until timeout.

This command connects to a serial port or WebSocket bridge and waits for
any complete frame passing the checksum. It never transmits, so it only
succeeds when another controller is driving the link. Use it to check a
live installation without disturbing it; use "ping" to check an idle one.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	transport, connInfo, err := OpenTransport(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer transport.Close()

	fmt.Printf("Shellydim - Link Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", linkTestTimeout)
	fmt.Printf("Waiting for a valid frame...\n\n")

	decoder := shdproto.NewDecoder()

	frameChan := make(chan *shdproto.Frame, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		rejects := 0
		for {
			if transport.Available() == 0 {
				if _, err := transport.ReadByte(); err == ErrConnectionClosed {
					errChan <- err
					return
				}
				time.Sleep(time.Millisecond)
				continue
			}

			b, err := transport.ReadByte()
			if err != nil {
				if err == ErrConnectionClosed {
					errChan <- err
					return
				}
				continue
			}

			frame, decodeErr := decoder.DecodeByte(b)
			if decodeErr != nil {
				rejects++
				continue
			}
			if frame != nil {
				if rejects > 0 {
					fmt.Printf("(%d rejected bytes before sync)\n", rejects)
				}
				frameChan <- frame
				return
			}
		}
	}()

	select {
	case frame := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Command: %s (0x%02X)\n", shdproto.FormatCommand(frame.Cmd), frame.Cmd)
		fmt.Printf("  Sequence: %d\n", frame.Seq)
		fmt.Printf("  Payload: %d bytes\n", len(frame.Payload))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(linkTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", linkTestTimeout)
		os.Exit(1)
	}

	return nil
}
