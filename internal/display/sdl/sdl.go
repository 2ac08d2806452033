// SPDX-License-Identifier: MIT

// Package sdl is the window display backend built on SDL2 and SDL_ttf.
// All calls must come from the goroutine locked to the main OS thread.
package sdl

import (
	"fmt"
	"image/color"
	"strings"

	"spectralyzer/internal/display"
	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"
)

const DefaultFontSize = 12

type labelKey struct {
	text string
	c    color.RGBA
}

type label struct {
	texture *sdl.Texture
	w, h    int32
}

// Window is an SDL window with a renderer and an optional font. Without a
// font DrawText draws nothing.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
	labels   map[labelKey]label
	ttfInit  bool
	closed   bool
}

// Open initializes SDL, creates a centered window and loads the font.
// A missing font is logged as a warning.
func Open(cfg display.Config) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errs.Open("sdl window", fmt.Errorf("invalid size %dx%d", cfg.Width, cfg.Height))
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errs.Open("sdl init", err)
	}

	w := &Window{labels: make(map[labelKey]label)}
	window, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), sdl.WINDOW_SHOWN)
	if err != nil {
		w.Close()
		return nil, errs.Open("sdl create window", err)
	}
	w.window = window

	renderer, err := sdl.CreateRenderer(window, -1, 0)
	if err != nil {
		w.Close()
		return nil, errs.Open("sdl create renderer", err)
	}
	w.renderer = renderer
	if err := renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND); err != nil {
		w.Close()
		return nil, errs.Open("sdl blend mode", err)
	}

	w.loadFont(cfg)
	applog.Infof("SDL: Opened %dx%d window '%s'", cfg.Width, cfg.Height, cfg.Title)
	return w, nil
}

func (w *Window) loadFont(cfg display.Config) {
	if cfg.FontPath == "" {
		applog.Warnf("SDL: No font configured, axis labels disabled")
		return
	}
	if err := ttf.Init(); err != nil {
		applog.Warnf("SDL: TTF init failed, axis labels disabled: %v", err)
		return
	}
	w.ttfInit = true

	size := cfg.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	font, err := ttf.OpenFont(cfg.FontPath, size)
	if err != nil {
		applog.Warnf("SDL: Cannot open font '%s', axis labels disabled: %v", cfg.FontPath, err)
		return
	}
	w.font = font
}

func (w *Window) Size() (int, int) {
	width, height := w.window.GetSize()
	return int(width), int(height)
}

func (w *Window) Clear(c color.RGBA) error {
	if err := w.renderer.SetDrawColor(c.R, c.G, c.B, c.A); err != nil {
		return err
	}
	return w.renderer.Clear()
}

func (w *Window) DrawLine(x1, y1, x2, y2 float32, c color.RGBA) error {
	if err := w.renderer.SetDrawColor(c.R, c.G, c.B, c.A); err != nil {
		return err
	}
	return w.renderer.DrawLineF(x1, y1, x2, y2)
}

// DrawText renders text with its top left corner at (x, y). Rendered
// labels are cached as textures.
func (w *Window) DrawText(x, y float32, text string, c color.RGBA) error {
	if w.font == nil {
		return nil
	}
	key := labelKey{text: text, c: c}
	l, ok := w.labels[key]
	if !ok {
		surface, err := w.font.RenderUTF8Blended(text, sdl.Color{R: c.R, G: c.G, B: c.B, A: c.A})
		if err != nil {
			return err
		}
		texture, err := w.renderer.CreateTextureFromSurface(surface)
		l = label{texture: texture, w: surface.W, h: surface.H}
		surface.Free()
		if err != nil {
			return err
		}
		w.labels[key] = l
	}
	return w.renderer.Copy(l.texture, nil, &sdl.Rect{X: int32(x), Y: int32(y), W: l.w, H: l.h})
}

func (w *Window) Present() error {
	w.renderer.Present()
	return nil
}

// PollEvent drains SDL events until it finds a quit, a key press or a
// window change that needs a repaint.
func (w *Window) PollEvent() (display.Event, bool) {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			return display.Event{Type: display.EventQuit}, true
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN {
				return display.Event{
					Type: display.EventKeyDown,
					Key:  strings.ToLower(sdl.GetKeyName(e.Keysym.Sym)),
				}, true
			}
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_EXPOSED, sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				return display.Event{Type: display.EventOther}, true
			}
		}
	}
	return display.Event{}, false
}

// Close releases textures, font, renderer and window, then quits SDL.
// Safe to call more than once.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	for _, l := range w.labels {
		l.texture.Destroy()
	}
	clear(w.labels)
	if w.font != nil {
		w.font.Close()
	}
	if w.ttfInit {
		ttf.Quit()
	}
	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.window != nil {
		w.window.Destroy()
	}
	sdl.Quit()
	applog.Debugf("SDL: Window closed")
	return nil
}

var _ display.Surface = (*Window)(nil)
