package shdproto

import (
	"bytes"
	"testing"
)

func TestEncodeFrame_GoldenFrames(t *testing.T) {
	tests := []struct {
		name     string
		seq      uint8
		cmd      uint8
		payload  []byte
		expected []byte
	}{
		{
			name:     "version request",
			seq:      1,
			cmd:      CmdVersion,
			payload:  nil,
			expected: []byte{0x01, 0x01, 0x11, 0x00, 0x00, 0x12, 0x04},
		},
		{
			name:     "poll request",
			seq:      3,
			cmd:      CmdPoll,
			payload:  nil,
			expected: []byte{0x01, 0x03, 0x10, 0x00, 0x00, 0x13, 0x04},
		},
		{
			name:     "switch to full brightness",
			seq:      2,
			cmd:      CmdSwitch,
			payload:  SwitchPayload(1000),
			expected: []byte{0x01, 0x02, 0x01, 0x02, 0xE8, 0x03, 0x00, 0xF0, 0x04},
		},
		{
			name: "settings",
			seq:  4,
			cmd:  CmdSettings,
			payload: SettingsPayload(Settings{
				Brightness:       500,
				LeadingEdge:      true,
				FadeRate:         10,
				WarmupBrightness: 200,
				WarmupTime:       100,
			}),
			expected: []byte{
				0x01, 0x04, 0x20, 0x0A,
				0xF4, 0x01, 0x01, 0x00, 0x0A, 0x00, 0xC8, 0x00, 0x64, 0x00,
				0x02, 0x5A, 0x04,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := EncodeFrame(tt.seq, tt.cmd, tt.payload)
			if err != nil {
				t.Fatalf("EncodeFrame failed: %v", err)
			}
			if !bytes.Equal(frame, tt.expected) {
				t.Errorf("frame mismatch:\n  expected % 02X\n  got      % 02X", tt.expected, frame)
			}
		})
	}
}

func TestEncodeFrame_PayloadTooLarge(t *testing.T) {
	payload := make([]byte, MaxPayloadSize+1)
	_, err := EncodeFrame(1, CmdSwitch, payload)
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestEncodeFrame_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		seq     uint8
		cmd     uint8
		payload []byte
	}{
		{
			name:    "empty payload",
			seq:     1,
			cmd:     CmdVersion,
			payload: nil,
		},
		{
			name:    "switch off",
			seq:     10,
			cmd:     CmdSwitch,
			payload: SwitchPayload(0),
		},
		{
			name:    "sequence wrap edge",
			seq:     255,
			cmd:     CmdPoll,
			payload: nil,
		},
		{
			name:    "unknown command code",
			seq:     42,
			cmd:     0x7F,
			payload: []byte{0xDE, 0xAD},
		},
		{
			name:    "payload containing framing byte values",
			seq:     7,
			cmd:     CmdSettings,
			payload: []byte{StartByte, EndByte, StartByte, EndByte},
		},
		{
			name:    "max payload",
			seq:     9,
			cmd:     CmdPoll,
			payload: bytes.Repeat([]byte{0xAA}, MaxPayloadSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeFrame(tt.seq, tt.cmd, tt.payload)
			if err != nil {
				t.Fatalf("EncodeFrame failed: %v", err)
			}

			if encoded[0] != StartByte {
				t.Errorf("frame should start with 0x%02X, got 0x%02X", StartByte, encoded[0])
			}
			if encoded[len(encoded)-1] != EndByte {
				t.Errorf("frame should end with 0x%02X, got 0x%02X", EndByte, encoded[len(encoded)-1])
			}

			decoder := NewDecoder()
			var decoded *Frame
			for i, b := range encoded {
				f, err := decoder.DecodeByte(b)
				if err != nil {
					t.Fatalf("decode error at byte %d: %v", i, err)
				}
				if f != nil {
					if i != len(encoded)-1 {
						t.Errorf("frame completed early at byte %d of %d", i, len(encoded))
					}
					decoded = f
				}
			}

			if decoded == nil {
				t.Fatal("no frame decoded")
			}
			if decoded.Seq != tt.seq {
				t.Errorf("seq mismatch: expected %d, got %d", tt.seq, decoded.Seq)
			}
			if decoded.Cmd != tt.cmd {
				t.Errorf("cmd mismatch: expected 0x%02X, got 0x%02X", tt.cmd, decoded.Cmd)
			}
			if !bytes.Equal(decoded.Payload, tt.payload) {
				t.Errorf("payload mismatch:\n  expected % 02X\n  got      % 02X", tt.payload, decoded.Payload)
			}
		})
	}
}

func TestFrame_Encode(t *testing.T) {
	f := &Frame{Seq: 2, Cmd: CmdSwitch, Payload: SwitchPayload(1000)}
	encoded, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	expected := []byte{0x01, 0x02, 0x01, 0x02, 0xE8, 0x03, 0x00, 0xF0, 0x04}
	if !bytes.Equal(encoded, expected) {
		t.Errorf("frame mismatch:\n  expected % 02X\n  got      % 02X", expected, encoded)
	}
}
