// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"
)

// File replays a decoded audio file as if it were captured live.
type File struct {
	name    string
	samples []float32
	pos     int
	loop    bool
	rate    float64
	latency time.Duration
	pacer   *pacer
}

// OpenFile decodes cfg.Path (WAV, MP3 or Ogg Vorbis), mixes it to mono and
// resamples it to cfg.SampleRate. Reads are paced at real time unless
// cfg.Unpaced is set. Without cfg.Loop, Read returns io.EOF once the file
// is exhausted; the final partial frame is zero padded.
func OpenFile(cfg Config) (*File, error) {
	if cfg.SampleRate <= 0 {
		return nil, errs.Open("file source", fmt.Errorf("invalid sample rate %.0f", cfg.SampleRate))
	}
	if cfg.Path == "" {
		return nil, errs.Open("file source", fmt.Errorf("no file path configured"))
	}

	d, err := decodeFile(cfg.Path)
	if err != nil {
		return nil, errs.Open("file source", err)
	}
	if len(d.samples) == 0 {
		return nil, errs.Open("file source", fmt.Errorf("%s contains no samples", filepath.Base(cfg.Path)))
	}

	samples := resampleLinear(d.samples, float64(d.rate), cfg.SampleRate)
	applog.Infof("File: Loaded '%s' (%d Hz, %.2fs, loop=%t)",
		filepath.Base(cfg.Path), d.rate, float64(len(samples))/cfg.SampleRate, cfg.Loop)

	return &File{
		name:    filepath.Base(cfg.Path),
		samples: samples,
		loop:    cfg.Loop,
		rate:    cfg.SampleRate,
		latency: time.Duration(float64(cfg.FrameSize) / cfg.SampleRate * float64(time.Second)),
		pacer:   newPacer(cfg.SampleRate, !cfg.Unpaced),
	}, nil
}

func (f *File) SampleRate() float64    { return f.rate }
func (f *File) Latency() time.Duration { return f.latency }

func (f *File) Read(frame []float32) error {
	if f.pos >= len(f.samples) && !f.loop {
		return io.EOF
	}
	if !f.pacer.wait(len(frame)) {
		return ErrInterrupted
	}

	n := 0
	for n < len(frame) {
		if f.pos >= len(f.samples) {
			if !f.loop {
				clear(frame[n:])
				return nil
			}
			f.pos = 0
		}
		c := copy(frame[n:], f.samples[f.pos:])
		n += c
		f.pos += c
	}
	return nil
}

func (f *File) Interrupt() error {
	f.pacer.interrupt()
	return nil
}

func (f *File) Close() error {
	applog.Debugf("File: Closed '%s'", f.name)
	return nil
}

var (
	_ Source      = (*File)(nil)
	_ Interrupter = (*File)(nil)
)
