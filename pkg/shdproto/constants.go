// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

// Package shdproto implements the serial protocol spoken by the STM32
// dimming co-processor on Shelly Dimmer 1/2 hardware.
//
// The co-processor runs fixed firmware and is driven over UART with short
// framed command/reply exchanges. This package provides frame
// encoding/decoding, checksum validation, reply payload decoding, and
// human-readable formatting. It knows nothing about transports; callers
// feed it bytes and hand its output to a serial port or bridge.
package shdproto

// Protocol framing bytes
const (
	StartByte = 0x01
	EndByte   = 0x04
)

// Frame size limits
const (
	MaxPayloadSize = 72
	MaxFrameSize   = 79 // 4 header + 72 payload + 2 checksum + 1 end
)

// Command codes. The dimmer never speaks first: every frame it sends is a
// reply carrying the command code and sequence number of our request.
const (
	CmdSwitch   = 0x01 // set brightness, acked
	CmdPoll     = 0x10 // telemetry request
	CmdVersion  = 0x11 // firmware version request
	CmdSettings = 0x20 // push dimming settings, acked
)

// Command payload sizes
const (
	SwitchPayloadSize   = 2
	SettingsPayloadSize = 10
	VersionReplySize    = 2
	TelemetryMinSize    = 16
)

// AckOK is the single acknowledgement byte the dimmer returns for an
// accepted SWITCH or SETTINGS command
const AckOK = 0x01

// Settings edge selector values
const (
	EdgeLeading  = 0x01
	EdgeTrailing = 0x02
)

// MaxFadeRate is the largest fade rate the firmware accepts in a
// SETTINGS frame
const MaxFadeRate = 100

// MaxBrightness is the dimmer's full-scale raw brightness (100.0%)
const MaxBrightness = 1000

// Telemetry scaling constants. A physical reading is constant / raw
// counter, or zero when the counter is zero. These values match the STM32
// firmware bit for bit; do not round them.
const (
	PowerScalingFactor   = 880373
	VoltageScalingFactor = 347800
	CurrentScalingFactor = 1448
)
