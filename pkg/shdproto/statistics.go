// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package shdproto

import (
	"fmt"
	"time"
)

// Statistics tracks frame and decode-error counts on a byte stream.
// Callers feed it every DecodeByte result; it is not safe for
// concurrent use.
type Statistics struct {
	StartTime time.Time

	TotalFrames  int
	DecodeErrors int

	// Per-command frame counts
	SwitchFrames   int
	PollFrames     int
	VersionFrames  int
	SettingsFrames int
	OtherFrames    int

	FrameRate float64 // frames per second
	ErrorRate float64 // decode errors per second
}

// NewStatistics creates a statistics tracker starting now
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Update records one DecodeByte result. Either argument may be nil;
// a nil frame with a nil error is the common mid-frame case and counts
// nothing.
func (s *Statistics) Update(frame *Frame, decodeErr error) {
	if decodeErr != nil {
		s.DecodeErrors++
		return
	}
	if frame == nil {
		return
	}

	s.TotalFrames++
	switch frame.Cmd {
	case CmdSwitch:
		s.SwitchFrames++
	case CmdPoll:
		s.PollFrames++
	case CmdVersion:
		s.VersionFrames++
	case CmdSettings:
		s.SettingsFrames++
	default:
		s.OtherFrames++
	}
}

// CalculateRates updates the per-second rates from the elapsed time
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.DecodeErrors) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)

	if s.SwitchFrames > 0 {
		result += fmt.Sprintf("  SWITCH:        %8d\n", s.SwitchFrames)
	}
	if s.PollFrames > 0 {
		result += fmt.Sprintf("  POLL:          %8d\n", s.PollFrames)
	}
	if s.VersionFrames > 0 {
		result += fmt.Sprintf("  VERSION:       %8d\n", s.VersionFrames)
	}
	if s.SettingsFrames > 0 {
		result += fmt.Sprintf("  SETTINGS:      %8d\n", s.SettingsFrames)
	}
	if s.OtherFrames > 0 {
		result += fmt.Sprintf("  other:         %8d\n", s.OtherFrames)
	}

	result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all counters and restarts the clock
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
