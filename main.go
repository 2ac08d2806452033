// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"spectralyzer/cmd"
	"spectralyzer/internal/app"
	"spectralyzer/internal/capture"
	applog "spectralyzer/internal/log"
	"spectralyzer/internal/tui"
	"spectralyzer/pkg/build"
)

// SDL must be driven from the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

// run is divided into three phases:
//
// 1. Startup (cold path): build info, command line, configuration, one-off
// commands such as device listing.
//
// 2. Concurrent phase (hot path): the capture producer runs on its own
// goroutine while this goroutine renders and polls input.
//
// 3. Shutdown (cold path): the producer is joined, exporters stopped and
// the display closed, in that order.
//
// The exit code is 0 on a normal quit and 1 on any startup failure.
func run() int {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildErr := build.Initialize()

	inv, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if inv.Command == cmd.CommandNone {
		return 0
	}

	cfg := inv.Config
	level, _ := applog.ParseLevel(cfg.LogLevel)
	applog.SetLevel(level)
	if buildErr != nil {
		applog.Debugf("Build: Development build: %v", buildErr)
	}
	applog.Infof("%s", build.GetBuildFlags())

	switch inv.Command {
	case cmd.CommandList:
		devices, err := capture.Devices()
		if err != nil {
			applog.Errorf("Listing devices: %v", err)
			return 1
		}
		capture.ListDevices(os.Stdout, devices)
		return 0

	case cmd.CommandDevices:
		sel, err := tui.StartDeviceListUI()
		if err != nil {
			applog.Errorf("Device browser: %v", err)
			return 1
		}
		if sel == nil {
			return 0
		}
		applog.Infof("Selected device %d (%s) at %.0f Hz", sel.DeviceID, sel.DeviceName, sel.SampleRate)
		cfg.Audio.Backend = capture.BackendPortAudio
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
		if err := cfg.Validate(); err != nil {
			applog.Errorf("Invalid configuration for selected device: %v", err)
			return 1
		}
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		applog.Errorf("%v", err)
		return 1
	}

	runErr := a.Run(ctx)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if runErr != nil {
		applog.Errorf("Startup failed: %v", runErr)
		return 1
	}
	if cfg.Recording.Enabled {
		fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.Path)
	}
	return 0
}
