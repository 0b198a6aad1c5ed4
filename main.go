// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov
//
// Shellydim - Shelly Dimmer 2 co-processor control tool
//
// A CLI tool for driving the STM32 co-processor of a Shelly Dimmer 2
// over a local serial port or a remote WebSocket UART bridge.

package main

import (
	"os"

	"github.com/olegtarasov/esphome-shelly-dimmer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
