// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is a mono float32 blocking input stream.
type PortAudio struct {
	stream  *portaudio.Stream
	buf     []float32
	rate    float64
	latency time.Duration
	device  string

	overflows int
	closeOnce sync.Once
	closeErr  error
}

// OpenPortAudio initializes PortAudio and starts a blocking mono input
// stream of cfg.FrameSize samples per read. The stream owns the PortAudio
// initialization and terminates it on Close.
func OpenPortAudio(cfg Config) (*PortAudio, error) {
	if cfg.FrameSize <= 0 {
		return nil, errs.Open("portaudio", fmt.Errorf("invalid frame size %d", cfg.FrameSize))
	}
	if cfg.SampleRate <= 0 {
		return nil, errs.Open("portaudio", fmt.Errorf("invalid sample rate %.0f", cfg.SampleRate))
	}
	if err := Initialize(); err != nil {
		return nil, errs.Open("portaudio", err)
	}

	device, err := InputDevice(cfg.DeviceID)
	if err != nil {
		Terminate()
		return nil, errs.Open("portaudio input device", err)
	}

	var params portaudio.StreamParameters
	if cfg.LowLatency {
		params = portaudio.LowLatencyParameters(device, nil)
	} else {
		params = portaudio.HighLatencyParameters(device, nil)
	}
	params.Input.Channels = 1
	params.Output.Channels = 0
	params.SampleRate = cfg.SampleRate
	params.FramesPerBuffer = cfg.FrameSize

	buf := make([]float32, cfg.FrameSize)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		Terminate()
		return nil, errs.Open(fmt.Sprintf("portaudio open stream on '%s'", device.Name), err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		Terminate()
		return nil, errs.Open("portaudio start stream", err)
	}

	latency := params.Input.Latency
	if info := stream.Info(); info != nil {
		latency = info.InputLatency
	}

	applog.Infof("PortAudio: Capturing from '%s' (%d samples per read)", device.Name, cfg.FrameSize)
	return &PortAudio{
		stream:  stream,
		buf:     buf,
		rate:    cfg.SampleRate,
		latency: latency,
		device:  device.Name,
	}, nil
}

func (p *PortAudio) SampleRate() float64    { return p.rate }
func (p *PortAudio) Latency() time.Duration { return p.latency }

// Read blocks until a full frame has been captured. An input overflow
// still delivers the frame.
func (p *PortAudio) Read(frame []float32) error {
	if len(frame) != len(p.buf) {
		return errs.IO("portaudio read", fmt.Errorf("frame size %d, stream delivers %d", len(frame), len(p.buf)))
	}
	err := p.stream.Read()
	if errors.Is(err, portaudio.InputOverflowed) {
		p.overflows++
		applog.Debugf("PortAudio: input overflow #%d on '%s'", p.overflows, p.device)
		err = nil
	}
	if err != nil {
		return errs.IO("portaudio read", err)
	}
	copy(frame, p.buf)
	return nil
}

// Interrupt aborts the stream so a pending Read returns.
func (p *PortAudio) Interrupt() error {
	if err := p.stream.Abort(); err != nil {
		return fmt.Errorf("portaudio abort: %w", err)
	}
	return nil
}

// Close releases the stream and PortAudio. Safe to call more than once.
func (p *PortAudio) Close() error {
	p.closeOnce.Do(func() {
		if err := p.stream.Close(); err != nil {
			p.closeErr = fmt.Errorf("portaudio close: %w", err)
		}
		if err := Terminate(); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
	})
	return p.closeErr
}

var (
	_ Source      = (*PortAudio)(nil)
	_ Interrupter = (*PortAudio)(nil)
)
