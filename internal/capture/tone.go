// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"time"

	"spectralyzer/internal/errs"
	"spectralyzer/pkg/utils"
)

// Tone is a synthetic sine source, useful without audio hardware.
type Tone struct {
	rate      float64
	frequency float64
	amplitude float64
	phase     float64
	latency   time.Duration
	pacer     *pacer
}

// NewTone returns a sine generator paced at real time unless cfg.Unpaced
// is set. Frequency defaults to 1kHz and amplitude to 0.5.
func NewTone(cfg Config) (*Tone, error) {
	if cfg.SampleRate <= 0 {
		return nil, errs.Open("tone source", fmt.Errorf("invalid sample rate %.0f", cfg.SampleRate))
	}
	freq := cfg.ToneFrequency
	if freq <= 0 {
		freq = 1000
	}
	if freq > cfg.SampleRate/2 {
		return nil, errs.Open("tone source", fmt.Errorf("tone %.0f Hz above Nyquist %.0f Hz", freq, cfg.SampleRate/2))
	}
	amp := cfg.ToneAmplitude
	if amp <= 0 || amp > 1 {
		amp = 0.5
	}
	return &Tone{
		rate:      cfg.SampleRate,
		frequency: freq,
		amplitude: amp,
		latency:   time.Duration(float64(cfg.FrameSize) / cfg.SampleRate * float64(time.Second)),
		pacer:     newPacer(cfg.SampleRate, !cfg.Unpaced),
	}, nil
}

func (t *Tone) SampleRate() float64    { return t.rate }
func (t *Tone) Latency() time.Duration { return t.latency }

func (t *Tone) Read(frame []float32) error {
	if !t.pacer.wait(len(frame)) {
		return ErrInterrupted
	}
	t.phase = utils.FillSine(frame, t.rate, t.frequency, t.amplitude, t.phase)
	return nil
}

func (t *Tone) Interrupt() error {
	t.pacer.interrupt()
	return nil
}

func (t *Tone) Close() error { return nil }

var (
	_ Source      = (*Tone)(nil)
	_ Interrupter = (*Tone)(nil)
)
