// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

// exchange runs the request and reply cycle over a transport. It owns the
// sequence counter and the stream decoder; one exchange per transport.
type exchange struct {
	transport Transport
	decoder   *shdproto.Decoder
	seq       uint8
}

func newExchange(transport Transport) *exchange {
	return &exchange{
		transport: transport,
		decoder:   shdproto.NewDecoder(),
	}
}

// Send transmits a command and waits for the matching reply. The frame is
// encoded once and the exact same bytes go out on every retry. A reply
// matches when its sequence number equals the request's; frames carrying
// any other sequence number are dropped and the wait continues. Write and
// flush failures abort immediately, ErrNoReply is returned once all
// attempts time out.
func (e *exchange) Send(cmd uint8, payload []byte) (*shdproto.Frame, error) {
	seq := e.seq
	e.seq++

	raw, err := shdproto.EncodeFrame(seq, cmd, payload)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if attempt > 1 {
			slog.Warn("Retrying command",
				"cmd", shdproto.FormatCommand(cmd),
				"seq", seq,
				"attempt", attempt)
		}

		if _, err := e.transport.Write(raw); err != nil {
			return nil, fmt.Errorf("failed to write frame: %w", err)
		}
		if err := e.transport.Flush(); err != nil {
			return nil, fmt.Errorf("failed to flush transport: %w", err)
		}

		if frame := e.readReply(seq); frame != nil {
			return frame, nil
		}
	}

	return nil, ErrNoReply
}

// readReply consumes transport bytes until a frame with the wanted
// sequence number arrives or the attempt deadline passes.
func (e *exchange) readReply(seq uint8) *shdproto.Frame {
	deadline := time.Now().Add(AckTimeout)
	for time.Now().Before(deadline) {
		if e.transport.Available() == 0 {
			time.Sleep(readPollInterval)
			continue
		}

		b, err := e.transport.ReadByte()
		if err != nil {
			slog.Debug("Transport read failed", "error", err)
			time.Sleep(readPollInterval)
			continue
		}

		frame, err := e.decoder.DecodeByte(b)
		if err != nil {
			slog.Debug("Dropping malformed frame", "error", err)
			continue
		}
		if frame == nil {
			continue
		}
		if frame.Seq != seq {
			// Stale reply from an earlier attempt; keep waiting.
			continue
		}
		return frame
	}
	return nil
}

// Reset drains buffered transport bytes and restarts the decoder. Called
// before talking to a freshly rebooted co-processor.
func (e *exchange) Reset() {
	for e.transport.Available() > 0 {
		if _, err := e.transport.ReadByte(); err != nil {
			break
		}
	}
	e.decoder.Reset()
}
