// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	"spectralyzer/internal/capture"

	tea "github.com/charmbracelet/bubbletea"
)

func testDevices() []capture.Device {
	return []capture.Device{
		{ID: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
		{ID: 1, Name: "USB Mic", MaxInputChannels: 1, DefaultSampleRate: 192000, IsDefaultInput: true},
		{ID: 2, Name: "Interface", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 44100},
	}
}

func update(t *testing.T, m DeviceListModel, msgs ...tea.Msg) DeviceListModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(DeviceListModel)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T) DeviceListModel {
	t.Helper()
	m := NewDeviceListModel(func() ([]capture.Device, error) { return testDevices(), nil })
	msg := m.Init()()
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40}, msg)
}

func TestDeviceListStartsOnDefaultInput(t *testing.T) {
	m := loadedModel(t)

	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d, want the default input 1", m.selectedIndex)
	}
	view := m.View()
	for _, want := range []string{"Capture Devices", "USB Mic", "*default*", "Speakers"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestDeviceListNavigation(t *testing.T) {
	m := loadedModel(t)

	m = update(t, m, keyMsg("down"), keyMsg("down"), keyMsg("down"))
	if m.selectedIndex != 2 {
		t.Errorf("selectedIndex = %d, want clamp at 2", m.selectedIndex)
	}
	m = update(t, m, keyMsg("k"), keyMsg("k"), keyMsg("k"))
	if m.selectedIndex != 0 {
		t.Errorf("selectedIndex = %d, want clamp at 0", m.selectedIndex)
	}

	// Output-only devices cannot be configured for capture.
	m = update(t, m, keyMsg("enter"))
	if m.activeScreen != ListScreen {
		t.Error("entered configuration for an output-only device")
	}
}

func TestDeviceSelection(t *testing.T) {
	m := loadedModel(t)

	m = update(t, m, keyMsg("enter"))
	if m.activeScreen != ConfigScreen {
		t.Fatal("enter did not open the configuration screen")
	}
	if got := SampleRates[m.sampleRateIndex]; got != 192000 {
		t.Errorf("preselected rate %.0f, want device default 192000", got)
	}
	if !strings.Contains(m.View(), "Capture from: USB Mic") {
		t.Error("configuration view does not name the device")
	}

	m = update(t, m, keyMsg("up"))
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(DeviceListModel)
	if cmd == nil {
		t.Fatal("confirming a selection should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("confirming a selection should return tea.Quit")
	}

	sel := m.Selection()
	if sel == nil {
		t.Fatal("Selection() = nil after confirming")
	}
	if sel.DeviceID != 1 || sel.SampleRate != 96000 {
		t.Errorf("Selection() = %+v, want device 1 at 96000", sel)
	}
}

func TestDeviceConfigBack(t *testing.T) {
	m := loadedModel(t)
	m = update(t, m, keyMsg("enter"), keyMsg("esc"))
	if m.activeScreen != ListScreen {
		t.Error("esc did not return to the list")
	}
	if m.Selection() != nil {
		t.Error("backing out should not select")
	}
}

func TestDeviceListQuit(t *testing.T) {
	m := loadedModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestDeviceListError(t *testing.T) {
	m := NewDeviceListModel(func() ([]capture.Device, error) { return nil, errors.New("portaudio unavailable") })
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24}, m.Init()())

	if !strings.Contains(m.View(), "portaudio unavailable") {
		t.Errorf("View() = %q, want the error", m.View())
	}
}

func TestClosestRate(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{44100, 44100},
		{47000, 48000},
		{176400, 192000},
		{8000, 44100},
	}
	for _, tt := range tests {
		if got := SampleRates[closestRate(tt.rate)]; got != tt.want {
			t.Errorf("closestRate(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}
