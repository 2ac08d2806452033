// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"
	"spectralyzer/internal/spectrum"

	"gopkg.in/yaml.v3"
)

// DefaultPaths are searched when no config file is given.
var DefaultPaths = []string{"spectralyzer.yaml", "config.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches DefaultPaths and falls back to built-in defaults.
// Environment overrides (ENV_*) are applied last, then the result is
// validated.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load is LoadConfig without validation, for callers that apply further
// overrides first.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range DefaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: Loaded %s", path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate checks ranges and names. Sizes beyond the transform limits are
// reported as errs.ErrResourceExhausted.
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		add("log_level '%s' is not one of debug, info, warn, error", c.LogLevel)
	}

	a := c.Audio
	switch a.Backend {
	case "portaudio", "tone":
	case "file":
		if a.File == "" {
			add("audio.file must be set for the file backend")
		}
	default:
		add("audio.backend '%s' is not one of portaudio, file, tone", a.Backend)
	}
	if a.InputDevice < MinDeviceID {
		add("audio.input_device %d is invalid (-1 selects the default)", a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		add("audio.sample_rate %.0f outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	frame := a.FrameSize()
	if frame <= 0 {
		add("audio.frame_duration %s yields no samples at %.0f Hz", a.FrameDuration, a.SampleRate)
	}
	switch {
	case a.WindowSize > spectrum.MaxWindowSize:
		problems = append(problems, errs.Exhausted("audio.window_size", a.WindowSize, spectrum.MaxWindowSize))
	case a.WindowSize < frame:
		add("audio.window_size %d must hold at least one frame (%d samples)", a.WindowSize, frame)
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		add("audio.gate_threshold %v outside [0, 1]", a.GateThreshold)
	}
	if a.Backend == "tone" && (a.ToneFrequency <= 0 || a.ToneFrequency >= a.SampleRate/2) {
		add("audio.tone_frequency %v must be between 0 and Nyquist", a.ToneFrequency)
	}

	an := c.Analysis
	switch {
	case an.DisplayBins <= 0:
		add("analysis.display_bins must be positive, got %d", an.DisplayBins)
	case an.DisplayBins > spectrum.MaxDisplayBins:
		problems = append(problems, errs.Exhausted("analysis.display_bins", an.DisplayBins, spectrum.MaxDisplayBins))
	}
	if an.HighCut <= 0 {
		add("analysis.high_cut must be positive")
	}
	if an.ResultScale <= 0 {
		add("analysis.result_scale must be positive")
	}
	switch an.FFTBackend {
	case spectrum.BackendGonum, spectrum.BackendGoDSP, "go-dsp":
	default:
		add("analysis.fft_backend '%s' is not one of gonum, godsp", an.FFTBackend)
	}
	if _, err := spectrum.ParseWindowFunc(an.FFTWindow); err != nil {
		add("analysis.fft_window: %v", err)
	}

	d := c.Display
	if d.Backend != "sdl" && d.Backend != "term" {
		add("display.backend '%s' is not one of sdl, term", d.Backend)
	}
	if d.Width <= 0 || d.Height <= 0 {
		add("display size %dx%d must be positive", d.Width, d.Height)
	}
	if d.FPS <= 0 || d.FPS > MaxFPS {
		add("display.fps %d outside [1, %d]", d.FPS, MaxFPS)
	}
	if d.QuitKey == "" {
		add("display.quit_key must be set")
	}
	if d.Margin < 0 || d.Margin >= d.Height {
		add("display.margin %d must be within the window height", d.Margin)
	}
	if d.LabelCount < 0 {
		add("display.label_count must not be negative")
	}

	if r := c.Recording; r.Enabled {
		if r.Path == "" {
			add("recording.path must be set when recording is enabled")
		}
		if r.BitDepth != 16 && r.BitDepth != 24 && r.BitDepth != 32 {
			add("recording.bit_depth %d is not one of 16, 24, 32", r.BitDepth)
		}
	}

	t := c.Transport
	if t.WebSocketEnabled || t.UDPEnabled || t.LogEnabled {
		if t.Interval <= 0 {
			add("transport.interval must be positive")
		}
		if t.Bins <= 0 {
			add("transport.bins must be positive")
		}
	}
	if t.WebSocketEnabled && !strings.Contains(t.WebSocketAddress, ":") {
		add("transport.websocket_address '%s' appears invalid (missing port?)", t.WebSocketAddress)
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		add("transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress)
	}

	return errors.Join(problems...)
}

// applyEnvOverrides applies ENV_* variables on top of file values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(name); ok {
			*dst = val
			applog.Infof("configuration: Overriding %s from env: %s", name, val)
		}
	}
	boolean := func(name string, dst *bool) {
		if val, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = b
			applog.Infof("configuration: Overriding %s from env: %v", name, b)
		}
	}
	integer := func(name string, dst *int) {
		if val, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = n
			applog.Infof("configuration: Overriding %s from env: %d", name, n)
		}
	}
	float := func(name string, dst *float64) {
		if val, ok := os.LookupEnv(name); ok {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = f
			applog.Infof("configuration: Overriding %s from env: %v", name, f)
		}
	}
	duration := func(name string, dst *time.Duration) {
		if val, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				applog.Warnf("configuration: Ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = d
			applog.Infof("configuration: Overriding %s from env: %s", name, d)
		}
	}

	var debug bool
	boolean("ENV_DEBUG", &debug)
	if debug {
		c.LogLevel = "debug"
	}
	str("ENV_LOG_LEVEL", &c.LogLevel)

	// ENV_AUDIO_*
	str("ENV_AUDIO_BACKEND", &c.Audio.Backend)
	integer("ENV_AUDIO_INPUT_DEVICE", &c.Audio.InputDevice)
	float("ENV_AUDIO_SAMPLE_RATE", &c.Audio.SampleRate)
	duration("ENV_AUDIO_FRAME_DURATION", &c.Audio.FrameDuration)
	integer("ENV_AUDIO_WINDOW_SIZE", &c.Audio.WindowSize)
	str("ENV_AUDIO_FILE", &c.Audio.File)

	// ENV_ANALYSIS_*
	str("ENV_ANALYSIS_FFT_BACKEND", &c.Analysis.FFTBackend)
	str("ENV_ANALYSIS_FFT_WINDOW", &c.Analysis.FFTWindow)

	// ENV_DISPLAY_*
	str("ENV_DISPLAY_BACKEND", &c.Display.Backend)
	str("ENV_DISPLAY_FONT_PATH", &c.Display.FontPath)

	// ENV_WS_* and ENV_UDP_*
	boolean("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	str("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
	boolean("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	str("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	duration("ENV_TRANSPORT_INTERVAL", &c.Transport.Interval)
}
