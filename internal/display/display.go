// SPDX-License-Identifier: MIT

// Package display defines the surface contract shared by the window and
// terminal backends.
package display

import (
	"strings"

	"spectralyzer/internal/render"
)

type EventType int

const (
	EventQuit EventType = iota + 1
	EventKeyDown
	EventOther
)

// Event is a backend-neutral input event. Key holds the lower-cased key
// name for EventKeyDown.
type Event struct {
	Type EventType
	Key  string
}

// IsQuit reports whether e ends the program for the given quit key.
func (e Event) IsQuit(quitKey string) bool {
	switch e.Type {
	case EventQuit:
		return true
	case EventKeyDown:
		return quitKey != "" && e.Key == strings.ToLower(quitKey)
	}
	return false
}

// Surface is a display the main goroutine draws on and polls for input.
// Implementations are not safe for concurrent use.
type Surface interface {
	render.Canvas
	// PollEvent returns the next pending event without blocking.
	PollEvent() (Event, bool)
	Close() error
}

type Config struct {
	Title    string
	Width    int
	Height   int
	FontPath string
	FontSize int
	QuitKey  string
}
