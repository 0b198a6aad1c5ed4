// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package shdproto

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp.Format("15:04:05.000")
	cmd := FormatCommand(f.Cmd)

	result := fmt.Sprintf("[%s] %s (0x%02X) seq=%d len=%d\n", timestamp, cmd, f.Cmd, f.Seq, len(f.Payload))
	result += FormatPayload(f.Cmd, f.Payload)

	return result
}

// FormatCommand returns the human-readable name for a command code
func FormatCommand(cmd uint8) string {
	switch cmd {
	case CmdSwitch:
		return "SWITCH"
	case CmdPoll:
		return "POLL"
	case CmdVersion:
		return "VERSION"
	case CmdSettings:
		return "SETTINGS"
	default:
		return "UNKNOWN"
	}
}

// FormatPayload formats a frame payload based on the command code.
// Both directions share command codes, so the render picks the
// interpretation matching the payload length: a one-byte SWITCH payload is
// an acknowledgement, a two-byte one is a brightness request, and so on.
func FormatPayload(cmd uint8, payload []byte) string {
	switch cmd {
	case CmdPoll:
		if len(payload) == 0 {
			return "  (poll request)\n"
		}
		t, err := DecodeTelemetry(payload)
		if err != nil {
			return fmt.Sprintf("  Undecodable telemetry: %v\n", err)
		}
		result := fmt.Sprintf("  HW version: %d\n", t.HWVersion)
		result += fmt.Sprintf("  Brightness: %d\n", t.Brightness)
		result += fmt.Sprintf("  Fade rate:  %d\n", t.FadeRate)
		result += fmt.Sprintf("  Power:      %.3f W\n", t.Power)
		result += fmt.Sprintf("  Voltage:    %.3f V\n", t.Voltage)
		result += fmt.Sprintf("  Current:    %.3f A\n", t.Current)
		return result

	case CmdVersion:
		if len(payload) == 0 {
			return "  (version request)\n"
		}
		major, minor, err := DecodeVersion(payload)
		if err != nil {
			return fmt.Sprintf("  Undecodable version: %v\n", err)
		}
		return fmt.Sprintf("  Firmware version: %d.%d\n", major, minor)

	case CmdSwitch:
		if len(payload) == SwitchPayloadSize {
			brightness := uint16(payload[1])<<8 | uint16(payload[0])
			return fmt.Sprintf("  Brightness: %d\n", brightness)
		}
		return formatAck(payload)

	case CmdSettings:
		if len(payload) == SettingsPayloadSize {
			brightness := uint16(payload[1])<<8 | uint16(payload[0])
			fadeRate := uint16(payload[5])<<8 | uint16(payload[4])
			warmupBrightness := uint16(payload[7])<<8 | uint16(payload[6])
			warmupTime := uint16(payload[9])<<8 | uint16(payload[8])
			edge := "trailing"
			if payload[2] == EdgeLeading {
				edge = "leading"
			}
			result := fmt.Sprintf("  Brightness: %d, Edge: %s\n", brightness, edge)
			result += fmt.Sprintf("  Fade rate: %d, Warmup: %d for %d ms\n", fadeRate, warmupBrightness, warmupTime)
			return result
		}
		return formatAck(payload)

	default:
		return fmt.Sprintf("  Raw: %s\n", FormatHex(payload))
	}
}

// FormatHex renders bytes as space-separated hex pairs
func FormatHex(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// formatAck renders a one-byte acknowledgement payload
func formatAck(payload []byte) string {
	if len(payload) == 1 {
		if payload[0] == AckOK {
			return "  Ack: OK\n"
		}
		return fmt.Sprintf("  Ack: rejected (0x%02X)\n", payload[0])
	}
	return fmt.Sprintf("  Raw: %s\n", FormatHex(payload))
}
