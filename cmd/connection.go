// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/config"
	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/dimmer"
)

// ErrConnectionClosed is returned when the bridge connection has failed
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

var errNoData = errors.New("no buffered data")

// SerialTransport drives the dimmer over a local serial port. The port
// read timeout is kept near zero so Available can probe for bytes
// without stalling the caller's retry clock.
type SerialTransport struct {
	port      serial.Port
	baud      int
	buf       []byte
	bufOffset int
	scratch   []byte
}

func (s *SerialTransport) Available() int {
	if s.bufOffset < len(s.buf) {
		return len(s.buf) - s.bufOffset
	}

	// A failed read reports as silence; pending commands then time out.
	n, err := s.port.Read(s.scratch)
	if err != nil || n == 0 {
		return 0
	}
	s.buf = append(s.buf[:0], s.scratch[:n]...)
	s.bufOffset = 0
	return n
}

func (s *SerialTransport) ReadByte() (byte, error) {
	if s.bufOffset >= len(s.buf) {
		return 0, errNoData
	}
	b := s.buf[s.bufOffset]
	s.bufOffset++
	return b, nil
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Flush waits until queued bytes are on the wire, so reply timeouts
// start counting from the end of the transmission.
func (s *SerialTransport) Flush() error {
	return s.port.Drain()
}

func (s *SerialTransport) SetParity(parity dimmer.Parity) error {
	mode := &serial.Mode{
		BaudRate: s.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if parity == dimmer.ParityEven {
		mode.Parity = serial.EvenParity
	}
	return s.port.SetMode(mode)
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// OpenSerialTransport opens a serial port in the 8N1 framing the dimmer
// firmware talks.
func OpenSerialTransport(portName string, baudRate int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %v", err)
	}

	return &SerialTransport{port: port, baud: baudRate, scratch: make([]byte, 128)}, nil
}

// WebSocketTransport drives the dimmer through a websocket serial
// bridge that relays binary messages byte-for-byte onto the UART. A
// reader goroutine keeps draining the socket into a buffer that
// Available and ReadByte consume.
type WebSocketTransport struct {
	conn *websocket.Conn

	mu        sync.Mutex
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *WebSocketTransport) readLoop() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.closed = true
			w.mu.Unlock()
			return
		}

		// The bridge relays UART bytes as binary messages; anything
		// else is chatter.
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.mu.Lock()
		if w.bufOffset > 0 {
			w.buf = append(w.buf[:0], w.buf[w.bufOffset:]...)
			w.bufOffset = 0
		}
		w.buf = append(w.buf, data...)
		w.mu.Unlock()
	}
}

func (w *WebSocketTransport) Available() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf) - w.bufOffset
}

func (w *WebSocketTransport) ReadByte() (byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bufOffset >= len(w.buf) {
		if w.closed {
			return 0, ErrConnectionClosed
		}
		return 0, errNoData
	}
	b := w.buf[w.bufOffset]
	w.bufOffset++
	return b, nil
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return 0, ErrConnectionClosed
	}

	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush is a no-op: the bridge forwards each message as it arrives.
func (w *WebSocketTransport) Flush() error {
	return nil
}

// SetParity rejects anything but the default framing. The remote UART
// is configured by the bridge, out of our reach.
func (w *WebSocketTransport) SetParity(parity dimmer.Parity) error {
	if parity == dimmer.ParityNone {
		return nil
	}
	return fmt.Errorf("bridge connection cannot change parity")
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

// OpenWebSocketTransport opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketTransport(wsURL, username, password string, skipSSLVerify bool) (*WebSocketTransport, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	t := &WebSocketTransport{conn: conn}
	go t.readLoop()
	return t, nil
}

// GetPassword retrieves the bridge password from the environment or
// prompts the user
func GetPassword() (string, error) {
	if pw := os.Getenv("SHELLYDIM_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens the endpoint named by the configuration, either a
// local serial port or a websocket bridge.
func OpenTransport(cfg *config.Config) (dimmer.Transport, string, error) {
	if cfg.Bridge.URL != "" {
		password := ""
		if cfg.Bridge.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		t, err := OpenWebSocketTransport(cfg.Bridge.URL, cfg.Bridge.Username, password, cfg.Bridge.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("WebSocket: %s", cfg.Bridge.URL), nil
	}

	t, err := OpenSerialTransport(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		return nil, "", err
	}
	return t, fmt.Sprintf("Serial: %s @ %d baud", cfg.Serial.Port, cfg.Serial.Baud), nil
}
