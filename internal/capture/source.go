// SPDX-License-Identifier: MIT
/*
Package capture provides the audio sources feeding the spectrum pipeline:
a PortAudio input stream, real-time paced file playback and a synthetic
tone, plus Gate and Recorder wrappers that compose around any Source.

Every Source delivers mono float32 frames in [-1, 1] at SampleRate. Read
blocks until the whole frame is filled; sources that also implement
Interrupter can be unblocked from another goroutine during shutdown.
*/
package capture

import (
	"errors"
	"fmt"
	"time"

	applog "spectralyzer/internal/log"
)

// Source is a blocking producer of fixed-size mono frames.
type Source interface {
	SampleRate() float64
	Read(frame []float32) error
	Latency() time.Duration
	Close() error
}

// Interrupter is implemented by sources whose pending Read can be
// cancelled from another goroutine.
type Interrupter interface {
	Interrupt() error
}

// ErrInterrupted is returned by Read after Interrupt has been called.
var ErrInterrupted = errors.New("capture: read interrupted")

// Backend names accepted by Open.
const (
	BackendPortAudio = "portaudio"
	BackendFile      = "file"
	BackendTone      = "tone"
)

// DefaultDevice selects the host's default input device.
const DefaultDevice = -1

// Config describes the source chain built by Open.
type Config struct {
	Backend    string
	SampleRate float64
	FrameSize  int

	// PortAudio
	DeviceID   int
	LowLatency bool

	// File
	Path string
	Loop bool

	// Tone
	ToneFrequency float64
	ToneAmplitude float64

	// Unpaced disables real-time pacing of the file and tone sources.
	Unpaced bool

	GateThreshold  float64
	RecordPath     string
	RecordBitDepth int
}

// Open builds the configured source, wrapped in a Recorder when
// RecordPath is set and then in a Gate when GateThreshold is positive.
func Open(cfg Config) (Source, error) {
	var (
		src Source
		err error
	)
	switch cfg.Backend {
	case BackendPortAudio, "":
		src, err = OpenPortAudio(cfg)
	case BackendFile:
		src, err = OpenFile(cfg)
	case BackendTone:
		src, err = NewTone(cfg)
	default:
		return nil, fmt.Errorf("unknown capture backend: '%s'", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RecordPath != "" {
		rec, err := NewRecorder(src, cfg.RecordPath, cfg.RecordBitDepth)
		if err != nil {
			src.Close()
			return nil, err
		}
		src = rec
	}
	if cfg.GateThreshold > 0 {
		src = NewGate(src, cfg.GateThreshold)
	}

	applog.Infof("Capture: %s source open (rate %.0f Hz, latency %s)", backendName(cfg.Backend), src.SampleRate(), src.Latency())
	return src, nil
}

func backendName(name string) string {
	if name == "" {
		return BackendPortAudio
	}
	return name
}

// interrupt forwards to src when it supports interruption.
func interrupt(src Source) error {
	if i, ok := src.(Interrupter); ok {
		return i.Interrupt()
	}
	return nil
}
