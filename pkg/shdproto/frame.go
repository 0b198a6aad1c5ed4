package shdproto

import (
	"fmt"
	"time"
)

// Frame is a single protocol frame. The wire layout is:
//
//	[start] [seq] [cmd] [len] [payload ...] [csum hi] [csum lo] [end]
//
// The checksum is transmitted big-endian and covers seq, cmd, len and the
// payload. Payload byte order within a frame is command-specific; see
// telemetry.go and commands.go.
type Frame struct {
	Seq     uint8
	Cmd     uint8
	Payload []byte

	// Timestamp is the decode completion time; zero on frames built
	// locally for transmission.
	Timestamp time.Time
}

// EncodeFrame builds the wire bytes for a single command frame.
// Returns an error if the payload exceeds the protocol limit.
func EncodeFrame(seq uint8, cmd uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, 4+len(payload)+3)
	frame = append(frame, StartByte, seq, cmd, uint8(len(payload)))
	frame = append(frame, payload...)

	// Checksum covers everything after the start byte so far.
	csum := Checksum(frame[1:])
	frame = append(frame, byte(csum>>8), byte(csum&0xFF))
	frame = append(frame, EndByte)

	return frame, nil
}

// Encode returns the wire bytes for the frame.
func (f *Frame) Encode() ([]byte, error) {
	return EncodeFrame(f.Seq, f.Cmd, f.Payload)
}
