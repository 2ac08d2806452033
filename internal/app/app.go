// SPDX-License-Identifier: MIT

// Package app wires capture, analysis, export and display together and runs
// the render loop on the calling goroutine.
//
// Startup order is transform, display, slots, exporters, pipeline. Teardown
// runs in reverse, so the display is released only after the producer has
// been joined.
package app

import (
	"context"
	"fmt"
	"time"

	"spectralyzer/internal/capture"
	"spectralyzer/internal/config"
	"spectralyzer/internal/display"
	applog "spectralyzer/internal/log"
	"spectralyzer/internal/pipeline"
	"spectralyzer/internal/render"
	"spectralyzer/internal/slot"
	"spectralyzer/internal/spectrum"
)

const renderErrorLogInterval = 5 * time.Second

// SurfaceFactory opens the display.
type SurfaceFactory func(display.Config) (display.Surface, error)

type Option func(*App)

// WithSurface replaces the configured display backend.
func WithSurface(open SurfaceFactory) Option {
	return func(a *App) { a.openSurface = open }
}

// WithSource replaces the configured capture backend.
func WithSource(open pipeline.Opener) Option {
	return func(a *App) { a.openSource = open }
}

// App is single-use: call Run once.
type App struct {
	cfg         *config.Config
	openSurface SurfaceFactory
	openSource  pipeline.Opener

	frames uint64
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config cannot be nil")
	}
	a := &App{cfg: cfg}
	a.openSurface = a.defaultSurface
	a.openSource = func() (capture.Source, error) {
		return capture.Open(CaptureConfig(cfg))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// CaptureConfig derives the source chain configuration.
func CaptureConfig(cfg *config.Config) capture.Config {
	cc := capture.Config{
		Backend:       cfg.Audio.Backend,
		SampleRate:    cfg.Audio.SampleRate,
		FrameSize:     cfg.Audio.FrameSize(),
		DeviceID:      cfg.Audio.InputDevice,
		LowLatency:    cfg.Audio.LowLatency,
		Path:          cfg.Audio.File,
		Loop:          cfg.Audio.Loop,
		ToneFrequency: cfg.Audio.ToneFrequency,
		ToneAmplitude: cfg.Audio.ToneAmplitude,
		GateThreshold: cfg.Audio.GateThreshold,
	}
	if cfg.Recording.Enabled {
		cc.RecordPath = cfg.Recording.Path
		cc.RecordBitDepth = cfg.Recording.BitDepth
	}
	return cc
}

// Run blocks until a quit event or ctx cancellation. Only startup failures
// are returned; errors.Is against the errs sentinels tells them apart.
func (a *App) Run(ctx context.Context) error {
	cfg := a.cfg
	bins := cfg.Analysis.DisplayBins

	window, err := spectrum.ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return err
	}
	tr, err := spectrum.New(spectrum.Config{
		WindowSize:  cfg.Audio.WindowSize,
		Bins:        bins,
		HighCut:     cfg.Analysis.HighCut,
		ResultScale: cfg.Analysis.ResultScale,
		Backend:     cfg.Analysis.FFTBackend,
		Window:      window,
	})
	if err != nil {
		return err
	}

	surface, err := a.openSurface(display.Config{
		Title:    cfg.Display.Title,
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
		FontPath: cfg.Display.FontPath,
		FontSize: cfg.Display.FontSize,
		QuitKey:  cfg.Display.QuitKey,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := surface.Close(); err != nil {
			applog.Warnf("App: Closing display: %v", err)
		}
	}()

	renderSlot, err := slot.New(bins)
	if err != nil {
		return err
	}
	sinks := []pipeline.Sink{renderSlot}

	exporters, err := startExporters(cfg, bins)
	if err != nil {
		return err
	}
	defer exporters.close()
	for _, e := range exporters {
		sinks = append(sinks, e.slot)
	}

	p, err := pipeline.New(pipeline.Config{FrameSize: cfg.Audio.FrameSize()}, a.openSource, tr, sinks...)
	if err != nil {
		return err
	}
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := p.Stop(); err != nil {
			applog.Errorf("App: Producer exited with error: %v", err)
		}
		s := p.Stats()
		applog.Infof("App: %d frames read, %d spectra published, %d drawn", s.FramesRead, s.Published, a.frames)
	}()

	renderer := render.New(render.Config{
		HighCut:    cfg.Analysis.HighCut,
		Margin:     cfg.Display.Margin,
		LabelCount: cfg.Display.LabelCount,
	})
	a.loop(ctx, surface, renderer, renderSlot, p.Done())
	return nil
}

// loop polls events and redraws at the configured rate until quit.
func (a *App) loop(ctx context.Context, surface display.Surface, renderer *render.Renderer, s *slot.Slot, producerDone <-chan struct{}) {
	quitKey := a.cfg.Display.QuitKey
	fps := a.cfg.Display.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	data := make([]float32, s.Size())
	limiter := applog.NewLimiter(renderErrorLogInterval)
	drawn := false

	for {
		repaint := false
		for {
			ev, ok := surface.PollEvent()
			if !ok {
				break
			}
			if ev.IsQuit(quitKey) {
				applog.Infof("App: Quit requested")
				return
			}
			// Any other event repaints the last spectrum.
			repaint = true
		}

		select {
		case <-ctx.Done():
			applog.Infof("App: Context cancelled")
			return
		case <-producerDone:
			// Keep showing the last spectrum until the user quits.
			applog.Infof("App: Producer finished, waiting for quit")
			producerDone = nil
			continue
		case <-ticker.C:
		}

		_, fresh := s.TryConsume(data)
		if !fresh && drawn && !repaint {
			continue
		}
		if err := renderer.DrawFrame(surface, data); err != nil {
			if ok, suppressed := limiter.Allow(); ok {
				applog.Errorf("App: Render failed (%d similar suppressed): %v", suppressed, err)
			}
		}
		drawn = true
		a.frames++
	}
}
