// SPDX-License-Identifier: MIT

// Package spectrum turns a window of audio samples into the fixed-resolution
// magnitude spectrum drawn by the renderer.
//
// For display bin i of D, the frequency f(i) = HighCut*i/D is looked up in
// the transform output at the nearest complex bin round(f/rate*W), clamped
// to the last valid bin. Magnitudes are divided by W/D and ResultScale and
// compressed with log10(v+1), so every output value is finite and >= 0.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"
	"spectralyzer/pkg/bitint"
)

// Reference values of the analysis.
const (
	DefaultHighCut     = 20000.0
	DefaultResultScale = 1000.0

	// Upper bounds on buffer sizes accepted by New.
	MaxWindowSize  = 1 << 22
	MaxDisplayBins = 1 << 20
)

// ErrSizeMismatch is returned by Compute when the input or output length
// differs from the planned sizes.
var ErrSizeMismatch = errors.New("spectrum: size mismatch")

// Config describes a transform. WindowSize and Bins are fixed for the
// lifetime of the Transform.
type Config struct {
	WindowSize  int        // W, samples per analysis window.
	Bins        int        // D, display resolution.
	HighCut     float64    // Upper analysis frequency in Hz.
	ResultScale float64    // Fixed divisor applied before log compression.
	Backend     string     // "gonum" or "godsp".
	Window      WindowFunc // Taper applied before the transform.
}

// Transform holds the planned FFT and its pre-allocated workspace.
type Transform struct {
	cfg     Config
	backend Backend
	taper   []float64

	input  []float64
	output []complex128

	// index maps display bins to complex bins for rate.
	rate  float64
	index []int

	norm float64
}

// New plans the transform. Planning errors wrap errs.ErrTransformPlan and
// oversized buffers wrap errs.ErrResourceExhausted.
func New(cfg Config) (*Transform, error) {
	if cfg.WindowSize > MaxWindowSize {
		return nil, errs.Exhausted("spectrum window", cfg.WindowSize, MaxWindowSize)
	}
	if cfg.Bins > MaxDisplayBins {
		return nil, errs.Exhausted("spectrum bins", cfg.Bins, MaxDisplayBins)
	}
	if cfg.Bins <= 0 {
		return nil, errs.Plan("spectrum", fmt.Errorf("display bins must be positive, got %d", cfg.Bins))
	}
	if cfg.HighCut <= 0 {
		cfg.HighCut = DefaultHighCut
	}
	if cfg.ResultScale <= 0 {
		cfg.ResultScale = DefaultResultScale
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendGonum
	}

	backend, err := NewBackend(cfg.Backend, cfg.WindowSize)
	if err != nil {
		return nil, errs.Plan("spectrum", err)
	}
	if !bitint.IsSmooth(cfg.WindowSize) {
		applog.Warnf("Spectrum: window size %d has prime factors above 5, transform will be slower (next fast size is %d)",
			cfg.WindowSize, bitint.NextSmooth(cfg.WindowSize))
	}

	applog.Infof("Spectrum: planned %s transform (Window: %d, Bins: %d, HighCut: %.0f Hz, Taper: %v)",
		cfg.Backend, cfg.WindowSize, cfg.Bins, cfg.HighCut, cfg.Window)

	return &Transform{
		cfg:     cfg,
		backend: backend,
		taper:   windowCoefficients(cfg.Window, cfg.WindowSize),
		input:   make([]float64, cfg.WindowSize),
		output:  make([]complex128, cfg.WindowSize/2+1),
		index:   make([]int, cfg.Bins),
		norm:    1 / (float64(cfg.WindowSize) / float64(cfg.Bins)) / cfg.ResultScale,
	}, nil
}

// WindowSize returns W.
func (t *Transform) WindowSize() int { return t.cfg.WindowSize }

// Bins returns D.
func (t *Transform) Bins() int { return t.cfg.Bins }

// HighCut returns the upper analysis frequency in Hz.
func (t *Transform) HighCut() float64 { return t.cfg.HighCut }

// Frequency returns the frequency in Hz represented by display bin i.
func (t *Transform) Frequency(i int) float64 {
	return t.cfg.HighCut * float64(i) / float64(t.cfg.Bins)
}

// Compute writes the spectrum of window, sampled at rate, into out.
// It does not allocate once the index table for rate has been built.
func (t *Transform) Compute(window []float32, rate float64, out []float32) error {
	if len(window) != t.cfg.WindowSize || len(out) != t.cfg.Bins {
		return fmt.Errorf("%w: window %d (want %d), out %d (want %d)",
			ErrSizeMismatch, len(window), t.cfg.WindowSize, len(out), t.cfg.Bins)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("sample rate must be positive, got %v", rate)
	}
	if rate != t.rate {
		t.buildIndex(rate)
	}

	if t.taper == nil {
		for i, s := range window {
			t.input[i] = float64(s)
		}
	} else {
		for i, s := range window {
			t.input[i] = float64(s) * t.taper[i]
		}
	}

	t.backend.Coefficients(t.output, t.input)

	for i, idx := range t.index {
		v := cmplx.Abs(t.output[idx]) * t.norm
		out[i] = float32(math.Log10(v + 1))
	}
	return nil
}

// buildIndex caches the display-bin to complex-bin table for rate.
func (t *Transform) buildIndex(rate float64) {
	last := len(t.output) - 1
	size := float64(t.cfg.WindowSize)
	for i := range t.index {
		idx := int(math.Round(t.Frequency(i) / rate * size))
		if idx > last {
			idx = last
		}
		t.index[i] = idx
	}
	t.rate = rate
}
