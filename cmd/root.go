// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/config"
)

var (
	cfgFile string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	deviceID string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "shellydim",
	Short: "Shelly Dimmer 2 co-processor control tool",
	Long: `Shellydim - A CLI tool for driving the STM32 dimming co-processor of a
Shelly Dimmer 2 over its serial link.

Provides commands for setting brightness, polling power telemetry, pushing
dimming settings and recording a power-curve calibration, plus a passive
frame monitor and an interactive dashboard.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the SHELLYDIM_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:          "0.3.0",
	SilenceUsage:     true,
	PersistentPreRun: setupLogging,
}

// setupLogging configures the process-wide logger before any command
// runs. The device core logs through slog's default logger.
func setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to YAML configuration file")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", config.DefaultBaud, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&deviceID, "device-id", "", "Device name keying the persisted calibration state")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// buildConfig loads the configuration file when one is given and lays
// the command line flags over it. Flags win over the file; an endpoint
// flag replaces an endpoint from the file entirely.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baudRate
	}
	if flags.Changed("url") {
		cfg.Bridge.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Bridge.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Bridge.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("device-id") {
		cfg.Dimmer.DeviceID = deviceID
	}

	if flags.Changed("url") && !flags.Changed("port") {
		cfg.Serial.Port = ""
	}
	if flags.Changed("port") && !flags.Changed("url") {
		cfg.Bridge.URL = ""
	}

	return cfg, nil
}

// loadConfig builds the effective configuration for commands that talk
// to the device. Exactly one endpoint must be configured.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

// loadOfflineConfig builds the effective configuration for commands
// that only touch the persisted state, with no endpoint required.
func loadOfflineConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateDimmer(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
