// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package shdproto

// Checksum computes the frame checksum as defined by the Shelly dimmer
// protocol: a plain 16-bit sum of the bytes with natural wraparound.
// It covers the sequence, command, length and payload bytes, never the
// start byte or the framing tail.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}
