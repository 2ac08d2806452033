// SPDX-License-Identifier: MIT
/*
Package pipeline runs the spectrum producer: one goroutine that reads
fixed-size frames from a capture source, slides them into the analysis
window, computes a spectrum and publishes it to every sink.

The goroutine owns the source, the window and the scratch spectrum. Sinks
are the only shared state and each guards itself, so no lock is ever held
across a blocking read.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"spectralyzer/internal/buffer"
	"spectralyzer/internal/capture"
	applog "spectralyzer/internal/log"
)

// State is the producer lifecycle.
type State int32

const (
	Starting State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Opener opens the capture source when the pipeline starts.
type Opener func() (capture.Source, error)

// Transformer turns a sample window into a spectrum.
type Transformer interface {
	WindowSize() int
	Bins() int
	Compute(window []float32, rate float64, out []float32) error
}

// Sink receives every computed spectrum. Publish must copy.
type Sink interface {
	Publish(spectrum []float32) (uint64, error)
}

// Stats counts producer activity.
type Stats struct {
	FramesRead   uint64
	ReadFailures uint64
	Published    uint64
}

const (
	DefaultRetryBackoff = 10 * time.Millisecond
	maxRetryBackoff     = time.Second
	errorLogInterval    = 5 * time.Second
)

// Config sizes the producer.
type Config struct {
	FrameSize    int
	RetryBackoff time.Duration
}

// Pipeline is a single-use producer: Start once, Stop once (further Stop
// calls are no-ops).
type Pipeline struct {
	cfg   Config
	open  Opener
	tr    Transformer
	sinks []Sink

	state atomic.Int32

	mu     sync.Mutex
	src    capture.Source
	cancel context.CancelFunc
	done   chan struct{}
	err    error

	stopOnce sync.Once

	framesRead   atomic.Uint64
	readFailures atomic.Uint64
	published    atomic.Uint64
}

// New validates the configuration. The window size comes from tr and must
// hold at least one frame.
func New(cfg Config, open Opener, tr Transformer, sinks ...Sink) (*Pipeline, error) {
	if open == nil {
		return nil, fmt.Errorf("pipeline: opener cannot be nil")
	}
	if tr == nil {
		return nil, fmt.Errorf("pipeline: transformer cannot be nil")
	}
	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("pipeline: frame size must be positive, got %d", cfg.FrameSize)
	}
	if tr.WindowSize() < cfg.FrameSize {
		return nil, fmt.Errorf("pipeline: window size %d smaller than frame size %d", tr.WindowSize(), cfg.FrameSize)
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}

	p := &Pipeline{
		cfg:   cfg,
		open:  open,
		tr:    tr,
		sinks: sinks,
		done:  make(chan struct{}),
	}
	p.state.Store(int32(Starting))
	return p, nil
}

// Start opens the source synchronously and launches the producer. An open
// failure is returned and leaves the pipeline Stopped.
func (p *Pipeline) Start(ctx context.Context) error {
	if p.State() != Starting {
		return fmt.Errorf("pipeline: Start called in state %s", p.State())
	}

	window, err := buffer.New(p.tr.WindowSize())
	if err != nil {
		p.fail(err)
		return err
	}

	src, err := p.open()
	if err != nil {
		p.fail(err)
		return err
	}

	rate := src.SampleRate()
	frameDur := time.Duration(float64(p.cfg.FrameSize) / rate * float64(time.Second))
	applog.Infof("Pipeline: Frame size %d samples (%s), window %d, latency %s",
		p.cfg.FrameSize, frameDur, p.tr.WindowSize(), src.Latency()+frameDur)

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.src = src
	p.cancel = cancel
	p.mu.Unlock()

	p.state.Store(int32(Running))
	go p.run(ctx, src, window, rate)
	return nil
}

func (p *Pipeline) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	p.state.Store(int32(Stopped))
	close(p.done)
}

func (p *Pipeline) run(ctx context.Context, src capture.Source, window *buffer.Sliding, rate float64) {
	var runErr error
	defer func() {
		if err := src.Close(); err != nil {
			applog.Warnf("Pipeline: Closing source: %v", err)
		}
		p.mu.Lock()
		p.err = runErr
		p.mu.Unlock()
		p.state.Store(int32(Stopped))
		close(p.done)
		applog.Infof("Pipeline: Producer stopped (%d frames, %d read failures)",
			p.framesRead.Load(), p.readFailures.Load())
	}()

	frame := make([]float32, p.cfg.FrameSize)
	spectrum := make([]float32, p.tr.Bins())
	limiter := applog.NewLimiter(errorLogInterval)
	backoff := p.cfg.RetryBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		if err := src.Read(frame); err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				applog.Infof("Pipeline: Source exhausted")
				return
			}
			p.readFailures.Add(1)
			if ok, suppressed := limiter.Allow(); ok {
				applog.Errorf("Pipeline: Read failed, retrying in %s (%d similar suppressed): %v", backoff, suppressed, err)
			}
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxRetryBackoff)
			continue
		}
		backoff = p.cfg.RetryBackoff
		p.framesRead.Add(1)

		window.Push(frame)
		if err := p.tr.Compute(window.Window(), rate, spectrum); err != nil {
			runErr = fmt.Errorf("pipeline: compute: %w", err)
			applog.Errorf("Pipeline: %v", runErr)
			return
		}
		for _, sink := range p.sinks {
			if _, err := sink.Publish(spectrum); err != nil {
				runErr = fmt.Errorf("pipeline: publish: %w", err)
				applog.Errorf("Pipeline: %v", runErr)
				return
			}
		}
		p.published.Add(1)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop cancels the producer, interrupts a pending read and waits for the
// goroutine to exit. It returns the producer's exit error.
func (p *Pipeline) Stop() error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		src, cancel := p.src, p.cancel
		p.mu.Unlock()

		if cancel == nil {
			// Never started or failed to open.
			if State(p.state.Load()) == Starting {
				p.fail(nil)
			}
			return
		}

		p.state.CompareAndSwap(int32(Running), int32(Stopping))
		applog.Debugf("Pipeline: Stopping producer...")
		cancel()
		if i, ok := src.(capture.Interrupter); ok {
			if err := i.Interrupt(); err != nil {
				applog.Warnf("Pipeline: Interrupting source: %v", err)
			}
		}
		<-p.done
	})
	<-p.done
	return p.Err()
}

// Done is closed once the producer has exited.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// Err reports why the producer exited; nil for a normal stop or end of input.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Pipeline) State() State { return State(p.state.Load()) }

func (p *Pipeline) Stats() Stats {
	return Stats{
		FramesRead:   p.framesRead.Load(),
		ReadFailures: p.readFailures.Load(),
		Published:    p.published.Load(),
	}
}
