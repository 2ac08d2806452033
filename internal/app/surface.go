// SPDX-License-Identifier: MIT
package app

import (
	"fmt"
	"os"

	"spectralyzer/internal/display"
	"spectralyzer/internal/display/sdl"
	"spectralyzer/internal/display/term"
	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"
)

// FontCandidates are tried in order when no font path is configured.
var FontCandidates = []string{
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/Library/Fonts/Arial.ttf",
	`C:\Windows\Fonts\arial.ttf`,
}

func (a *App) defaultSurface(cfg display.Config) (display.Surface, error) {
	switch a.cfg.Display.Backend {
	case "sdl", "":
		if cfg.FontPath == "" {
			cfg.FontPath = findFont(FontCandidates)
		}
		w, err := sdl.Open(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "term":
		t, err := term.Open(cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, errs.Open("display", fmt.Errorf("unknown display backend: '%s'", a.cfg.Display.Backend))
	}
}

func findFont(candidates []string) string {
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			applog.Debugf("App: Using font %s", path)
			return path
		}
	}
	return ""
}
