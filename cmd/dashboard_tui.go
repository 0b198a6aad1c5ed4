// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Oleg Tarasov

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/dimmer"
	"github.com/olegtarasov/esphome-shelly-dimmer/pkg/shdproto"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusControls = iota
	focusInput
)

const nudgeStep = 0.05

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// dashboardModel is the Bubble Tea model for the dashboard TUI
type dashboardModel struct {
	dm       *deviceManager
	connInfo string

	// Latest device snapshot
	state    deviceStateMsg
	hasState bool

	// Control
	input        textinput.Model
	calProgress  progress.Model
	focusedField int

	// Event log
	eventLog      []eventLogEntry
	maxLogEntries int

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

// deviceStateMsg carries a fresh device snapshot from the worker.
type deviceStateMsg struct {
	ready        bool
	version      string
	target       float64
	raw          uint16
	telemetry    shdproto.Telemetry
	hasTelemetry bool
	calibrating  bool
	progress     float64
	curve        [dimmer.CalibrationPoints]float64
	event        string
	err          error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialDashboardModel(dm *deviceManager, connInfo string) dashboardModel {
	ti := textinput.New()
	ti.Placeholder = "75"
	ti.CharLimit = 5
	ti.Width = 8

	return dashboardModel{
		dm:            dm,
		connInfo:      connInfo,
		input:         ti,
		calProgress:   progress.New(progress.WithDefaultGradient()),
		focusedField:  focusControls,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := m.width - 24
		if barWidth < 10 {
			barWidth = 10
		}
		m.calProgress.Width = barWidth

	case deviceStateMsg:
		m.applyState(msg)
	}

	return m, nil
}

func (m *dashboardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		return m.toggleFocus(), nil

	case "enter":
		if m.focusedField == focusInput {
			return m.submitBrightness()
		}

	case "up", "+":
		if m.focusedField == focusControls {
			m.nudgeBrightness(nudgeStep)
			return m, nil
		}

	case "down", "-":
		if m.focusedField == focusControls {
			m.nudgeBrightness(-nudgeStep)
			return m, nil
		}

	case "c":
		if m.focusedField == focusControls {
			m.dm.request(deviceRequest{kind: reqStartCalibration})
			return m, nil
		}

	case "x":
		if m.focusedField == focusControls {
			m.dm.request(deviceRequest{kind: reqClearCalibration})
			return m, nil
		}
	}

	// Pass through to the input when it is focused
	if m.focusedField == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *dashboardModel) toggleFocus() *dashboardModel {
	if m.focusedField == focusControls {
		m.focusedField = focusInput
		m.input.Focus()
	} else {
		m.focusedField = focusControls
		m.input.Blur()
	}
	return m
}

func (m *dashboardModel) submitBrightness() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		raw = m.input.Placeholder
	}

	percent, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil || percent < 0 || percent > 100 {
		m.addLogEntry(fmt.Sprintf("Invalid brightness: %s", raw), true)
		return m, nil
	}

	m.dm.request(deviceRequest{kind: reqSetBrightness, brightness: percent / 100})
	m.input.SetValue("")
	return m, nil
}

func (m *dashboardModel) nudgeBrightness(delta float64) {
	if !m.hasState {
		return
	}
	target := m.state.target + delta
	if target < 0 {
		target = 0
	}
	if target > 1 {
		target = 1
	}
	m.dm.request(deviceRequest{kind: reqSetBrightness, brightness: target})
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *dashboardModel) applyState(msg deviceStateMsg) {
	wasCalibrating := m.hasState && m.state.calibrating
	m.state = msg
	m.hasState = true

	if msg.event != "" {
		m.addLogEntry(msg.event, false)
	}
	if msg.err != nil {
		m.addLogEntry(msg.err.Error(), true)
	}
	if wasCalibrating && !msg.calibrating {
		if msg.curve[0] > 0 {
			m.addLogEntry("Calibration finished", false)
		} else {
			m.addLogEntry("Calibration discarded: flat power readings", false)
		}
	}
}

func (m *dashboardModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m dashboardModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	var s strings.Builder

	// Header
	helpText := "q=quit Tab=input +/-=nudge c=calibrate x=clear"
	if m.focusedField == focusInput {
		helpText = "q=quit Tab=controls Enter=apply"
	}
	s.WriteString(titleStyle.Render("SHELLYDIM DASHBOARD"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s", m.connInfo, helpText)))
	s.WriteString("\n\n")

	if !m.hasState {
		s.WriteString(warningStyle.Render("Waiting for device..."))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(m.renderStatus(labelStyle, valueStyle, warningStyle, boxStyle))
	s.WriteString("\n\n")

	s.WriteString(m.renderBrightnessPanel(labelStyle, boxStyle, focusedBoxStyle))
	s.WriteString("\n\n")

	s.WriteString(m.renderTelemetry(labelStyle, valueStyle, headerStyle, boxStyle))
	s.WriteString("\n\n")

	s.WriteString(m.renderCalibration(labelStyle, valueStyle, headerStyle, boxStyle))
	s.WriteString("\n\n")

	s.WriteString(m.renderEventLog(labelStyle, headerStyle, errorStyle, warningStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m dashboardModel) renderStatus(labelStyle, valueStyle, warningStyle, boxStyle lipgloss.Style) string {
	readyStr := valueStyle.Render("yes")
	if !m.state.ready {
		readyStr = warningStyle.Render("no")
	}

	content := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		labelStyle.Render("Firmware:"), valueStyle.Render(m.state.version),
		labelStyle.Render("Ready:"), readyStr,
		labelStyle.Render("Target:"), valueStyle.Render(fmt.Sprintf("%.0f%%", m.state.target*100)),
		labelStyle.Render("Raw:"), valueStyle.Render(fmt.Sprintf("%d / %d", m.state.raw, shdproto.MaxBrightness)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m dashboardModel) renderBrightnessPanel(labelStyle, boxStyle, focusedBoxStyle lipgloss.Style) string {
	style := boxStyle
	if m.focusedField == focusInput {
		style = focusedBoxStyle
	}

	var content strings.Builder
	content.WriteString(labelStyle.Render("Brightness %: "))
	if m.focusedField == focusInput {
		content.WriteString(m.input.View())
	} else {
		val := m.input.Value()
		if val == "" {
			val = m.input.Placeholder
		}
		content.WriteString(fmt.Sprintf("[%s]", val))
	}

	return style.Width(m.width - 4).Render(content.String())
}

func (m dashboardModel) renderTelemetry(labelStyle, valueStyle, headerStyle, boxStyle lipgloss.Style) string {
	var content strings.Builder
	content.WriteString(labelStyle.Render("TELEMETRY"))
	content.WriteString(" | ")

	if !m.state.hasTelemetry {
		content.WriteString(headerStyle.Render("No telemetry yet"))
		return boxStyle.Width(m.width - 4).Render(content.String())
	}

	t := m.state.telemetry
	content.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Power:"), valueStyle.Render(fmt.Sprintf("%.2f W", t.Power)),
		labelStyle.Render("Voltage:"), valueStyle.Render(fmt.Sprintf("%.1f V", t.Voltage)),
		labelStyle.Render("Current:"), valueStyle.Render(fmt.Sprintf("%.3f A", t.Current)),
		labelStyle.Render("HW:"), valueStyle.Render(fmt.Sprintf("%d", t.HWVersion)),
	))

	return boxStyle.Width(m.width - 4).Render(content.String())
}

func (m dashboardModel) renderCalibration(labelStyle, valueStyle, headerStyle, boxStyle lipgloss.Style) string {
	var content strings.Builder
	content.WriteString(labelStyle.Render("CALIBRATION"))
	content.WriteString(" | ")

	switch {
	case m.state.calibrating:
		content.WriteString(fmt.Sprintf("%s %3.0f%%\n", headerStyle.Render("sweeping"), m.state.progress*100))
		content.WriteString(m.calProgress.ViewAs(m.state.progress))

	case m.state.curve[0] > 0:
		content.WriteString(valueStyle.Render(fmt.Sprintf("%d-point curve loaded", dimmer.CalibrationPoints)))
		content.WriteString(headerStyle.Render("  (x to clear)"))

	default:
		content.WriteString(headerStyle.Render("no curve stored  (c to run a sweep)"))
	}

	return boxStyle.Width(m.width - 4).Render(content.String())
}

func (m dashboardModel) renderEventLog(labelStyle, headerStyle, errorStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := m.height - 20
	if logHeight < 4 {
		logHeight = 4
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	var content strings.Builder
	if len(m.eventLog) == 0 {
		content.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			content.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(content.String()))
	return s.String()
}
