// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package shdproto

import (
	"fmt"
	"time"
)

// Decoder implements the byte-at-a-time frame parser. The dimmer firmware
// has no inter-frame gap guarantees, so the parser keys purely on content:
// a position cursor walks each arriving byte through the frame layout and
// any violation discards the partial frame and restarts at position zero.
// The offending byte is consumed, not re-examined.
type Decoder struct {
	buffer    []byte
	pos       int
	rawBuffer []byte // Accumulate raw bytes including framing
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{
		buffer:    make([]byte, MaxFrameSize),
		rawBuffer: make([]byte, 0, MaxFrameSize*2),
	}
}

// Reset discards any partially received frame
func (d *Decoder) Reset() {
	d.pos = 0
	d.rawBuffer = d.rawBuffer[:0]
}

// GetRawBytes returns the raw bytes accumulated since the last reset
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// DecodeByte processes a single byte through the frame parser.
// Returns a completed frame, or nil if more bytes are needed.
// Returns an error if the byte violates the frame layout; the decoder has
// already restarted at position zero when an error comes back, so the
// caller just keeps feeding bytes.
func (d *Decoder) DecodeByte(c byte) (*Frame, error) {
	d.rawBuffer = append(d.rawBuffer, c)

	pos := d.pos
	switch {
	case pos == 0:
		// Must be start byte.
		if c != StartByte {
			err := fmt.Errorf("expected start byte 0x%02X, got 0x%02X", StartByte, c)
			d.Reset()
			return nil, err
		}
		d.buffer[pos] = c
		d.pos++
		return nil, nil

	case pos < 3:
		// Sequence and command bytes, any value accepted.
		d.buffer[pos] = c
		d.pos++
		return nil, nil

	case pos == 3:
		// Length byte. An impossible length is rejected here, before a
		// single payload byte is consumed.
		if 4+int(c)+3 > MaxFrameSize {
			err := fmt.Errorf("invalid length: %d (max %d)", c, MaxPayloadSize)
			d.Reset()
			return nil, err
		}
		d.buffer[pos] = c
		d.pos++
		return nil, nil
	}

	payloadLen := int(d.buffer[3])

	switch {
	case pos < 4+payloadLen+1:
		// Payload bytes and checksum high byte.
		d.buffer[pos] = c
		d.pos++
		return nil, nil

	case pos == 4+payloadLen+1:
		// Checksum low byte completes the stored sum; verify it.
		stored := uint16(d.buffer[pos-1])<<8 | uint16(c)
		computed := Checksum(d.buffer[1 : 4+payloadLen])
		if stored != computed {
			err := fmt.Errorf("checksum mismatch: expected 0x%04X, got 0x%04X", computed, stored)
			d.Reset()
			return nil, err
		}
		d.buffer[pos] = c
		d.pos++
		return nil, nil

	case pos == 4+payloadLen+2:
		// Must be end byte.
		if c != EndByte {
			err := fmt.Errorf("expected end byte 0x%02X, got 0x%02X", EndByte, c)
			d.Reset()
			return nil, err
		}
		frame := &Frame{
			Seq:       d.buffer[1],
			Cmd:       d.buffer[2],
			Payload:   append([]byte(nil), d.buffer[4:4+payloadLen]...),
			Timestamp: time.Now(),
		}
		d.Reset()
		return frame, nil

	default:
		// The length check above makes this unreachable; guard anyway.
		d.Reset()
		return nil, fmt.Errorf("decoder position out of range: %d", pos)
	}
}
