// SPDX-License-Identifier: MIT

// Package cmd parses the command line into a configuration and the
// command main should execute.
package cmd

import (
	"fmt"
	"io"
	"time"

	"spectralyzer/internal/config"
	"spectralyzer/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected on the command line.
const (
	CommandNone    = ""        // help or version was printed
	CommandRun     = "run"     // start the visualizer
	CommandList    = "list"    // print capture devices
	CommandDevices = "devices" // pick a device interactively, then run
)

// Invocation is the parsed command line.
type Invocation struct {
	Command string
	Config  *config.Config
}

// flagValues holds raw flag values; only flags the user set are applied
// on top of the loaded configuration.
type flagValues struct {
	configPath string
	verbose    bool

	backend       string
	device        int
	sampleRate    float64
	frameDuration time.Duration
	windowSize    int
	lowLatency    bool
	file          string
	loop          bool
	tone          float64
	gate          float64

	record   bool
	output   string
	bitDepth int

	bins       int
	highCut    float64
	fftBackend string
	fftWindow  string

	display string
	width   int
	height  int
	font    string
	fps     int

	websocket string
	udp       string
}

// ParseArgs parses args (without the program name). Output and usage go to
// out.
func ParseArgs(args []string, out io.Writer) (*Invocation, error) {
	buildInfo := build.GetBuildFlags()
	inv := &Invocation{Command: CommandNone}
	var v flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Command = CommandRun
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			inv.Command = CommandList
		},
	})

	// Devices command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "Choose an input device and sample rate interactively, then start",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			inv.Command = CommandDevices
		},
	})

	flags := rootCmd.PersistentFlags()
	defaults := config.Default()

	flags.StringVarP(&v.configPath, "config", "c", "",
		"Configuration file (default: spectralyzer.yaml or config.yaml if present)")
	flags.BoolVarP(&v.verbose, "verbose", "v", false,
		"Show verbose output")

	// Capture Configuration
	flags.StringVarP(&v.backend, "backend", "B", defaults.Audio.Backend,
		"Capture backend: portaudio, file or tone")
	flags.IntVarP(&v.device, "device", "d", defaults.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.Float64VarP(&v.sampleRate, "sample-rate", "s", defaults.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.DurationVar(&v.frameDuration, "frame-duration", defaults.Audio.FrameDuration,
		"Duration of one capture read (affects latency)")
	flags.IntVarP(&v.windowSize, "window-size", "w", defaults.Audio.WindowSize,
		"Transform window in samples, at least one frame")
	flags.BoolVarP(&v.lowLatency, "low-latency", "l", defaults.Audio.LowLatency,
		"Use low latency mode for real-time processing")
	flags.StringVarP(&v.file, "file", "f", "",
		"Play a WAV, MP3 or Ogg Vorbis file (implies --backend file)")
	flags.BoolVar(&v.loop, "loop", false,
		"Restart the file when it ends")
	flags.Float64Var(&v.tone, "tone", defaults.Audio.ToneFrequency,
		"Generate a sine tone of this frequency in Hz (implies --backend tone)")
	flags.Float64Var(&v.gate, "gate", 0,
		"Noise gate threshold between 0 and 1 (0 disables)")

	// Recording Configuration
	flags.BoolVarP(&v.record, "record", "r", false,
		"Record the captured signal to a WAV file")
	flags.StringVarP(&v.output, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")
	flags.IntVar(&v.bitDepth, "bit-depth", defaults.Recording.BitDepth,
		"Recording bit depth: 16, 24 or 32")

	// Analysis Configuration
	flags.IntVar(&v.bins, "bins", defaults.Analysis.DisplayBins,
		"Spectrum resolution in display bins")
	flags.Float64Var(&v.highCut, "high-cut", defaults.Analysis.HighCut,
		"Highest displayed frequency in Hz")
	flags.StringVar(&v.fftBackend, "fft-backend", defaults.Analysis.FFTBackend,
		"FFT implementation: gonum or godsp")
	flags.StringVar(&v.fftWindow, "fft-window", defaults.Analysis.FFTWindow,
		"Window function: rectangular, hann, hamming, blackman, ...")

	// Display Configuration
	flags.StringVarP(&v.display, "display", "D", defaults.Display.Backend,
		"Display backend: sdl or term")
	flags.IntVar(&v.width, "width", defaults.Display.Width,
		"Window width in pixels")
	flags.IntVar(&v.height, "height", defaults.Display.Height,
		"Window height in pixels")
	flags.StringVar(&v.font, "font", "",
		"TrueType font for axis labels")
	flags.IntVar(&v.fps, "fps", defaults.Display.FPS,
		"Redraw rate in frames per second")

	// Export Configuration
	flags.StringVar(&v.websocket, "websocket", "",
		"Serve spectra over WebSocket on this address (e.g. :8080)")
	flags.StringVar(&v.udp, "udp", "",
		"Send spectra as UDP datagrams to this address (e.g. 127.0.0.1:9090)")

	// Execute the CLI
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if inv.Command == CommandNone {
		return inv, nil
	}

	cfg, err := config.Load(v.configPath)
	if err != nil {
		return nil, err
	}
	v.apply(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	inv.Config = cfg
	return inv, nil
}

// apply copies every flag the user set into cfg.
func (v *flagValues) apply(flags *pflag.FlagSet, cfg *config.Config) {
	set := flags.Changed

	if v.verbose {
		cfg.LogLevel = "debug"
	}

	if set("backend") {
		cfg.Audio.Backend = v.backend
	}
	if set("device") {
		cfg.Audio.InputDevice = v.device
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = v.sampleRate
	}
	if set("frame-duration") {
		cfg.Audio.FrameDuration = v.frameDuration
	}
	if set("window-size") {
		cfg.Audio.WindowSize = v.windowSize
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = v.lowLatency
	}
	if set("file") {
		cfg.Audio.File = v.file
		if !set("backend") {
			cfg.Audio.Backend = "file"
		}
	}
	if set("loop") {
		cfg.Audio.Loop = v.loop
	}
	if set("tone") {
		cfg.Audio.ToneFrequency = v.tone
		if !set("backend") && !set("file") {
			cfg.Audio.Backend = "tone"
		}
	}
	if set("gate") {
		cfg.Audio.GateThreshold = v.gate
	}

	if set("record") {
		cfg.Recording.Enabled = v.record
	}
	if set("output") {
		cfg.Recording.Path = v.output
	} else if v.record && cfg.Recording.Path == config.DefaultRecordPath {
		cfg.Recording.Path = "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}
	if set("bit-depth") {
		cfg.Recording.BitDepth = v.bitDepth
	}

	if set("bins") {
		cfg.Analysis.DisplayBins = v.bins
	}
	if set("high-cut") {
		cfg.Analysis.HighCut = v.highCut
	}
	if set("fft-backend") {
		cfg.Analysis.FFTBackend = v.fftBackend
	}
	if set("fft-window") {
		cfg.Analysis.FFTWindow = v.fftWindow
	}

	if set("display") {
		cfg.Display.Backend = v.display
	}
	if set("width") {
		cfg.Display.Width = v.width
	}
	if set("height") {
		cfg.Display.Height = v.height
	}
	if set("font") {
		cfg.Display.FontPath = v.font
	}
	if set("fps") {
		cfg.Display.FPS = v.fps
	}

	if set("websocket") {
		cfg.Transport.WebSocketEnabled = v.websocket != ""
		cfg.Transport.WebSocketAddress = v.websocket
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = v.udp != ""
		cfg.Transport.UDPTargetAddress = v.udp
	}
}
