// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/dimmer"
)

// ============================================================
// Fake Serial Port
// ============================================================

// fakePort implements serial.Port in memory. Read consumes queued rx
// bytes and reports silence when the queue is empty, mirroring a port
// opened with a near-zero read timeout.
type fakePort struct {
	rx      []byte
	readErr error
	tx      []byte
	mode    *serial.Mode
	drains  int
	closed  bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.rx) == 0 {
		return 0, nil
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.tx = append(f.tx, p...)
	return len(p), nil
}

func (f *fakePort) SetMode(mode *serial.Mode) error      { f.mode = mode; return nil }
func (f *fakePort) Drain() error                         { f.drains++; return nil }
func (f *fakePort) ResetInputBuffer() error              { return nil }
func (f *fakePort) ResetOutputBuffer() error             { return nil }
func (f *fakePort) SetDTR(dtr bool) error                { return nil }
func (f *fakePort) SetRTS(rts bool) error                { return nil }
func (f *fakePort) SetReadTimeout(t time.Duration) error { return nil }
func (f *fakePort) Close() error                         { f.closed = true; return nil }
func (f *fakePort) Break(d time.Duration) error          { return nil }

func (f *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func newFakeTransport(f *fakePort) *SerialTransport {
	return &SerialTransport{port: f, baud: 115200, scratch: make([]byte, 128)}
}

// ============================================================
// Serial Transport
// ============================================================

func TestSerialTransport_ReadsThroughBuffer(t *testing.T) {
	port := &fakePort{rx: []byte{0x01, 0x02, 0x03}}
	tr := newFakeTransport(port)

	if n := tr.Available(); n != 3 {
		t.Fatalf("Expected 3 available bytes, got %d", n)
	}

	for i, expected := range []byte{0x01, 0x02, 0x03} {
		b, err := tr.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d failed: %v", i, err)
		}
		if b != expected {
			t.Errorf("Byte %d: expected 0x%02X, got 0x%02X", i, expected, b)
		}
	}

	if n := tr.Available(); n != 0 {
		t.Errorf("Drained transport should report 0 available, got %d", n)
	}

	// A second burst must come through after the first is consumed.
	port.rx = []byte{0xAA}
	if n := tr.Available(); n != 1 {
		t.Fatalf("Expected 1 available byte after refill, got %d", n)
	}
	b, err := tr.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte after refill failed: %v", err)
	}
	if b != 0xAA {
		t.Errorf("Expected 0xAA, got 0x%02X", b)
	}
}

func TestSerialTransport_ReadErrorIsSilence(t *testing.T) {
	port := &fakePort{readErr: errors.New("device unplugged")}
	tr := newFakeTransport(port)

	if n := tr.Available(); n != 0 {
		t.Errorf("Failed read should report as silence, got %d available", n)
	}
}

func TestSerialTransport_WriteAndFlush(t *testing.T) {
	port := &fakePort{}
	tr := newFakeTransport(port)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	n, err := tr.Write(payload)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(payload) {
		t.Errorf("Expected %d bytes written, got %d", len(payload), n)
	}
	if !bytes.Equal(port.tx, payload) {
		t.Errorf("Port received %v, expected %v", port.tx, payload)
	}

	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if port.drains != 1 {
		t.Errorf("Flush should drain the port once, drained %d times", port.drains)
	}
}

func TestSerialTransport_SetParity(t *testing.T) {
	port := &fakePort{}
	tr := newFakeTransport(port)

	if err := tr.SetParity(dimmer.ParityEven); err != nil {
		t.Fatalf("SetParity(even) failed: %v", err)
	}
	if port.mode == nil {
		t.Fatal("SetParity should reconfigure the port")
	}
	if port.mode.Parity != serial.EvenParity {
		t.Errorf("Expected even parity, got %v", port.mode.Parity)
	}
	if port.mode.BaudRate != 115200 || port.mode.DataBits != 8 {
		t.Errorf("Parity change must keep baud and data bits: %+v", port.mode)
	}

	if err := tr.SetParity(dimmer.ParityNone); err != nil {
		t.Fatalf("SetParity(none) failed: %v", err)
	}
	if port.mode.Parity != serial.NoParity {
		t.Errorf("Expected no parity, got %v", port.mode.Parity)
	}
}

// ============================================================
// WebSocket Transport
// ============================================================

func wsTestURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketTransport_RoundTrip(t *testing.T) {
	received := make(chan []byte, 1)
	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:hunter2"))

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != expectedAuth {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Text frames are bridge chatter and must not reach the byte stream.
		conn.WriteMessage(websocket.TextMessage, []byte("hello"))

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data

		conn.WriteMessage(websocket.BinaryMessage, []byte{0x0A, 0x0B})

		// Hold the connection until the client hangs up.
		conn.ReadMessage()
	}))
	defer srv.Close()

	tr, err := OpenWebSocketTransport(wsTestURL(srv), "admin", "hunter2", false)
	if err != nil {
		t.Fatalf("OpenWebSocketTransport failed: %v", err)
	}
	defer tr.Close()

	if _, err := tr.Write([]byte{0x55}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case data := <-received:
		if !bytes.Equal(data, []byte{0x55}) {
			t.Errorf("Server received %v, expected [0x55]", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server never received the write")
	}

	deadline := time.Now().Add(2 * time.Second)
	for tr.Available() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("Reply bytes never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b1, err := tr.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	b2, err := tr.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	if b1 != 0x0A || b2 != 0x0B {
		t.Errorf("Expected reply bytes 0x0A 0x0B, got 0x%02X 0x%02X", b1, b2)
	}
}

func TestWebSocketTransport_DetectsClosedConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	tr, err := OpenWebSocketTransport(wsTestURL(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketTransport failed: %v", err)
	}
	defer tr.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := tr.ReadByte()
		if err == ErrConnectionClosed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("ReadByte never reported the closed connection")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := tr.Write([]byte{0x01}); err != ErrConnectionClosed {
		t.Errorf("Write on closed connection: expected ErrConnectionClosed, got %v", err)
	}
}

func TestWebSocketTransport_ParityLocked(t *testing.T) {
	tr := &WebSocketTransport{}

	if err := tr.SetParity(dimmer.ParityNone); err != nil {
		t.Errorf("Default parity should be accepted, got %v", err)
	}
	if err := tr.SetParity(dimmer.ParityEven); err == nil {
		t.Error("Even parity over the bridge should be rejected")
	}
}

func TestOpenWebSocketTransport_RejectsBadScheme(t *testing.T) {
	_, err := OpenWebSocketTransport("http://bridge.local/uart", "", "", false)
	if err == nil {
		t.Fatal("Expected error for http:// scheme")
	}
	if !strings.Contains(err.Error(), "scheme") {
		t.Errorf("Error should name the scheme, got: %v", err)
	}
}
