// SPDX-License-Identifier: MIT
package config

import (
	"math"
	"time"
)

// Reference defaults.
const (
	DefaultLogLevel      = "info"
	DefaultAudioBackend  = "portaudio"
	DefaultDeviceID      = MinDeviceID
	DefaultSampleRate    = 192000
	DefaultFrameDuration = 30 * time.Millisecond
	DefaultWindowSize    = 11520
	DefaultToneFrequency = 1000
	DefaultToneAmplitude = 0.5

	DefaultDisplayBins = 20000
	DefaultHighCut     = 20000
	DefaultResultScale = 1000
	DefaultFFTBackend  = "gonum"
	DefaultFFTWindow   = "rectangular"

	DefaultDisplayBackend = "sdl"
	DefaultTitle          = "Spectralyzer"
	DefaultWidth          = 1500
	DefaultHeight         = 600
	DefaultFontSize       = 12
	DefaultQuitKey        = "q"
	DefaultFPS            = 60
	DefaultMargin         = 10
	DefaultLabelCount     = 20

	DefaultRecordPath     = "capture.wav"
	DefaultRecordBitDepth = 16

	DefaultTransportBins     = 256
	DefaultTransportInterval = 33 * time.Millisecond // ~30Hz
	DefaultWebSocketAddress  = "127.0.0.1:8080"
	DefaultUDPTargetAddress  = "127.0.0.1:9090"

	MinDeviceID   = -1 // -1 represents system default device
	MinSampleRate = 8000
	MaxSampleRate = 384000
	MaxFPS        = 1000
)

// Config is the complete application configuration, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Display   DisplayConfig   `yaml:"display"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig selects and sizes the capture source.
type AudioConfig struct {
	Backend       string        `yaml:"backend"`        // portaudio, file or tone.
	InputDevice   int           `yaml:"input_device"`   // PortAudio device index (-1 for default).
	SampleRate    float64       `yaml:"sample_rate"`    // Hz.
	FrameDuration time.Duration `yaml:"frame_duration"` // Samples per read = duration * rate.
	WindowSize    int           `yaml:"window_size"`    // Transform length, at least one frame.
	LowLatency    bool          `yaml:"low_latency"`    // Request low latency PortAudio parameters.
	File          string        `yaml:"file"`           // WAV, MP3 or Ogg Vorbis path for the file backend.
	Loop          bool          `yaml:"loop"`           // Restart the file at its end.
	ToneFrequency float64       `yaml:"tone_frequency"` // Hz, tone backend.
	ToneAmplitude float64       `yaml:"tone_amplitude"` // 0..1, tone backend.
	GateThreshold float64       `yaml:"gate_threshold"` // 0 disables the noise gate.
}

// AnalysisConfig shapes the spectrum.
type AnalysisConfig struct {
	DisplayBins int     `yaml:"display_bins"`
	HighCut     float64 `yaml:"high_cut"`     // Frequency of the last bin in Hz.
	ResultScale float64 `yaml:"result_scale"` // Magnitude divisor before log compression.
	FFTBackend  string  `yaml:"fft_backend"`  // gonum or godsp.
	FFTWindow   string  `yaml:"fft_window"`   // rectangular, hann, hamming, ...
}

// DisplayConfig selects the display backend and its look.
type DisplayConfig struct {
	Backend    string `yaml:"backend"` // sdl or term.
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FontPath   string `yaml:"font_path"` // Empty searches common system fonts.
	FontSize   int    `yaml:"font_size"`
	QuitKey    string `yaml:"quit_key"`
	FPS        int    `yaml:"fps"`
	Margin     int    `yaml:"margin"`
	LabelCount int    `yaml:"label_count"`
}

// RecordingConfig tees the captured signal into a WAV file.
type RecordingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	BitDepth int    `yaml:"bit_depth"` // 16, 24 or 32.
}

// TransportConfig exports downsampled spectra to other processes.
type TransportConfig struct {
	Bins             int           `yaml:"bins"`     // Exported resolution.
	Interval         time.Duration `yaml:"interval"` // Publish period.
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	LogEnabled       bool          `yaml:"log_enabled"` // Log a spectrum summary at debug level.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Backend:       DefaultAudioBackend,
			InputDevice:   DefaultDeviceID,
			SampleRate:    DefaultSampleRate,
			FrameDuration: DefaultFrameDuration,
			WindowSize:    DefaultWindowSize,
			ToneFrequency: DefaultToneFrequency,
			ToneAmplitude: DefaultToneAmplitude,
		},
		Analysis: AnalysisConfig{
			DisplayBins: DefaultDisplayBins,
			HighCut:     DefaultHighCut,
			ResultScale: DefaultResultScale,
			FFTBackend:  DefaultFFTBackend,
			FFTWindow:   DefaultFFTWindow,
		},
		Display: DisplayConfig{
			Backend:    DefaultDisplayBackend,
			Title:      DefaultTitle,
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			FontSize:   DefaultFontSize,
			QuitKey:    DefaultQuitKey,
			FPS:        DefaultFPS,
			Margin:     DefaultMargin,
			LabelCount: DefaultLabelCount,
		},
		Recording: RecordingConfig{
			Path:     DefaultRecordPath,
			BitDepth: DefaultRecordBitDepth,
		},
		Transport: TransportConfig{
			Bins:             DefaultTransportBins,
			Interval:         DefaultTransportInterval,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
	}
}

// FrameSize is the number of samples per capture read.
func (a AudioConfig) FrameSize() int {
	return int(math.Round(a.FrameDuration.Seconds() * a.SampleRate))
}
