// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package shdproto

// Command payload builders produce the raw payload bytes for each request
// the host can send. Frame assembly (sequence number, checksum, framing)
// is handled separately by EncodeFrame.

// SwitchPayload builds a SWITCH (0x01) payload setting the raw brightness,
// 0-1000 in tenths of a percent. Zero turns the output off completely.
func SwitchPayload(brightness uint16) []byte {
	return []byte{
		byte(brightness & 0xFF),
		byte(brightness >> 8),
	}
}

// Settings carries the dimming parameters pushed with a SETTINGS (0x20)
// command. Warmup drives the lamp harder for the first WarmupTime
// milliseconds after turn-on so low dimming levels still ignite.
type Settings struct {
	Brightness       uint16 // raw brightness, 0-1000
	LeadingEdge      bool   // leading edge when true, trailing edge when false
	FadeRate         uint16 // clamped to MaxFadeRate on encode
	WarmupBrightness uint16 // raw brightness used during warmup
	WarmupTime       uint16 // warmup duration in milliseconds
}

// SettingsPayload builds a SETTINGS (0x20) payload. The firmware ignores
// the brightness field in this frame; follow up with a separate SWITCH
// command to restore the level.
func SettingsPayload(s Settings) []byte {
	fadeRate := s.FadeRate
	if fadeRate > MaxFadeRate {
		fadeRate = MaxFadeRate
	}
	edge := byte(EdgeTrailing)
	if s.LeadingEdge {
		edge = EdgeLeading
	}

	return []byte{
		byte(s.Brightness & 0xFF),
		byte(s.Brightness >> 8),
		edge,
		0x00,
		byte(fadeRate & 0xFF),
		byte(fadeRate >> 8),
		byte(s.WarmupBrightness & 0xFF),
		byte(s.WarmupBrightness >> 8),
		byte(s.WarmupTime & 0xFF),
		byte(s.WarmupTime >> 8),
	}
}
