// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package shdproto

import "fmt"

// Telemetry is the dimmer state block carried in a POLL reply.
//
// Payload layout (little-endian fields, offsets within the payload):
//
//	0       hardware version
//	1       unused
//	2-3     brightness (0-1000)
//	4-7     power counter
//	8-11    voltage counter
//	12-15   current counter
//	16      fade rate (only on newer firmware)
type Telemetry struct {
	HWVersion  uint8
	Brightness uint16
	PowerRaw   uint32
	VoltageRaw uint32
	CurrentRaw uint32
	FadeRate   uint8

	// Scaled physical readings. Zero when the raw counter is zero; the
	// counters count mains periods per unit, so zero means "no signal",
	// not "infinite".
	Power   float64
	Voltage float64
	Current float64
}

// DecodeTelemetry decodes a POLL reply payload. At least 16 bytes are
// required; the fade rate byte is read only when actually present.
func DecodeTelemetry(payload []byte) (*Telemetry, error) {
	if len(payload) < TelemetryMinSize {
		return nil, fmt.Errorf("telemetry payload too short: %d bytes (min %d)", len(payload), TelemetryMinSize)
	}

	t := &Telemetry{
		HWVersion: payload[0],
		// payload[1] is unused.
		Brightness: uint16(payload[3])<<8 | uint16(payload[2]),
		PowerRaw:   uint32(payload[7])<<24 | uint32(payload[6])<<16 | uint32(payload[5])<<8 | uint32(payload[4]),
		VoltageRaw: uint32(payload[11])<<24 | uint32(payload[10])<<16 | uint32(payload[9])<<8 | uint32(payload[8]),
		CurrentRaw: uint32(payload[15])<<24 | uint32(payload[14])<<16 | uint32(payload[13])<<8 | uint32(payload[12]),
	}
	if len(payload) > TelemetryMinSize {
		t.FadeRate = payload[16]
	}

	if t.PowerRaw > 0 {
		t.Power = PowerScalingFactor / float64(t.PowerRaw)
	}
	if t.VoltageRaw > 0 {
		t.Voltage = VoltageScalingFactor / float64(t.VoltageRaw)
	}
	if t.CurrentRaw > 0 {
		t.Current = CurrentScalingFactor / float64(t.CurrentRaw)
	}

	return t, nil
}

// DecodeVersion decodes a VERSION reply payload. The firmware sends the
// minor version byte first.
func DecodeVersion(payload []byte) (major, minor uint8, err error) {
	if len(payload) < VersionReplySize {
		return 0, 0, fmt.Errorf("version payload too short: %d bytes (min %d)", len(payload), VersionReplySize)
	}
	return payload[1], payload[0], nil
}

// DecodeAck checks the single-byte acknowledgement the dimmer returns for
// SWITCH and SETTINGS commands. Returns nil only for an explicit accept.
func DecodeAck(payload []byte) error {
	if len(payload) < 1 {
		return fmt.Errorf("empty acknowledgement payload")
	}
	if payload[0] != AckOK {
		return fmt.Errorf("command rejected: ack byte 0x%02X", payload[0])
	}
	return nil
}
