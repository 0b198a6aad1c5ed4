// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

// Parity selects the parity mode of the link to the STM32. The
// application firmware talks 8N1; the chip's ROM bootloader insists on
// 8E1, so a firmware upgrade needs the link reconfigured around it.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
)

// Transport is the byte-oriented duplex link to the dimmer.
// Implementations wrap a serial port or a network bridge; the core only
// probes for buffered bytes, pops them one at a time and writes whole
// frames.
type Transport interface {
	// Available reports how many received bytes can be read without
	// blocking.
	Available() int

	// ReadByte pops one received byte. Only called when Available
	// reported at least one.
	ReadByte() (byte, error)

	// Write queues frame bytes for transmission.
	Write(p []byte) (int, error)

	// Flush blocks until queued bytes are on the wire.
	Flush() error

	// SetParity reconfigures the link parity.
	SetParity(parity Parity) error

	// Close releases the link.
	Close() error
}
