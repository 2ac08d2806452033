// SPDX-License-Identifier: MIT
/*
Package render turns a spectrum into draw calls: one vertical line per
canvas column rising from the midline, colored by loudness, above a row of
frequency ticks and labels.
*/
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"spectralyzer/internal/errs"
	"spectralyzer/internal/spectrum"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Reference display constants.
const (
	DefaultMargin     = 10
	DefaultLabelCount = 20
	DefaultLogBase    = 10.0
	DefaultHueOffset  = 120.0
	DefaultHueMax     = 360.0
	tickLength        = 5
	labelSpacing      = 10
)

type Config struct {
	HighCut    float64 // Frequency of the right edge, used for labels.
	Margin     int
	LabelCount int
	LogBase    float64
	HueOffset  float64
	HueMax     float64
}

// Renderer is used from a single goroutine. It keeps per-width scratch so
// steady state frames do not allocate.
type Renderer struct {
	cfg     Config
	columns []float32
	labels  []string
}

// New fills unset fields with the reference values.
func New(cfg Config) *Renderer {
	if cfg.HighCut <= 0 {
		cfg.HighCut = spectrum.DefaultHighCut
	}
	if cfg.Margin < 0 {
		cfg.Margin = 0
	} else if cfg.Margin == 0 {
		cfg.Margin = DefaultMargin
	}
	if cfg.LabelCount <= 0 {
		cfg.LabelCount = DefaultLabelCount
	}
	if cfg.LogBase <= 1 {
		cfg.LogBase = DefaultLogBase
	}
	if cfg.HueMax <= 0 {
		cfg.HueMax = DefaultHueMax
	}
	if cfg.HueOffset == 0 {
		cfg.HueOffset = DefaultHueOffset
	}

	r := &Renderer{cfg: cfg, labels: make([]string, cfg.LabelCount)}
	for i := range r.labels {
		r.labels[i] = fmt.Sprintf("%dkHz", int(cfg.HighCut*float64(i)/float64(cfg.LabelCount)/1000))
	}
	return r
}

// Level maps a column average onto 0..1 as 1 - LogBase^-avg.
func (r *Renderer) Level(avg float32) float32 {
	if avg <= 0 {
		return 0
	}
	return float32(1 - math.Pow(r.cfg.LogBase, -float64(avg)))
}

// Hue of a level, in degrees within [0, HueMax).
func (r *Renderer) Hue(level float32) float64 {
	h := math.Mod(r.cfg.HueOffset-float64(level)*r.cfg.HueMax/2, r.cfg.HueMax)
	if h < 0 {
		h += r.cfg.HueMax
	}
	return h
}

// Color of a level at full saturation and value.
func (r *Renderer) Color(level float32) color.RGBA {
	red, green, blue := colorful.Hsv(r.Hue(level), 1, 1).RGB255()
	return color.RGBA{R: red, G: green, B: blue, A: 0xff}
}

// DrawFrame clears the canvas, draws the axis and one line per column, and
// presents. Failing labels or columns are skipped and reported together
// once the frame is presented; Clear and Present failures abort the frame.
func (r *Renderer) DrawFrame(c Canvas, data []float32) error {
	width, height := c.Size()
	if width <= 0 || height <= 0 {
		return errs.IO("draw frame", fmt.Errorf("canvas size %dx%d", width, height))
	}
	if cap(r.columns) < width {
		r.columns = make([]float32, width)
	}
	columns := r.columns[:width]
	spectrum.Downsample(columns, data)

	if err := c.Clear(Black); err != nil {
		return errs.IO("clear", err)
	}

	var drawErrs []error
	mid := float32(height) / 2

	for i, label := range r.labels {
		x := float32(math.Round(float64(i) * float64(width) / float64(len(r.labels))))
		if err := c.DrawLine(x, mid, x, mid+tickLength, White); err != nil {
			drawErrs = append(drawErrs, fmt.Errorf("tick %d: %w", i, err))
		}
		if err := c.DrawText(x, mid+labelSpacing, label, White); err != nil {
			drawErrs = append(drawErrs, fmt.Errorf("label %q: %w", label, err))
		}
	}

	scale := float32(height-r.cfg.Margin) / 2
	var columnErr error
	for x, avg := range columns {
		level := r.Level(avg)
		fx := float32(x)
		if err := c.DrawLine(fx, mid, fx, mid-level*scale, r.Color(level)); err != nil && columnErr == nil {
			columnErr = fmt.Errorf("column %d: %w", x, err)
		}
	}
	if columnErr != nil {
		drawErrs = append(drawErrs, columnErr)
	}

	if err := c.Present(); err != nil {
		return errs.IO("present", errors.Join(append(drawErrs, err)...))
	}
	if len(drawErrs) > 0 {
		return errs.IO("draw frame", errors.Join(drawErrs...))
	}
	return nil
}
