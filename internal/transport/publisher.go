// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "spectralyzer/internal/log"
	"spectralyzer/internal/slot"
	"spectralyzer/internal/spectrum"
)

// DefaultInterval is ~60Hz.
const DefaultInterval = 16 * time.Millisecond

// Publisher periodically drains its own spectrum slot, downsamples the
// spectrum to a fixed bin count and hands it to a Transport. It runs in a
// separate goroutine managed by Start and Stop.
type Publisher struct {
	name      string
	source    *slot.Slot
	transport Transport
	interval  time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	// Reused on every tick.
	spectrum []float32
	bins     []float32

	sent   uint64
	failed uint64
}

// NewPublisher creates a publisher reading from source. bins is the
// exported resolution; zero exports the full spectrum.
func NewPublisher(name string, interval time.Duration, source *slot.Slot, transport Transport, bins int) (*Publisher, error) {
	if source == nil {
		return nil, fmt.Errorf("%s publisher: source slot cannot be nil", name)
	}
	if transport == nil {
		return nil, fmt.Errorf("%s publisher: transport cannot be nil", name)
	}
	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("Publisher(%s): Invalid interval provided, defaulting to %s", name, interval)
	}
	if bins <= 0 || bins > source.Size() {
		bins = source.Size()
	}

	applog.Infof("Publisher(%s): Initializing (Interval: %s, Bins: %d)", name, interval, bins)
	return &Publisher{
		name:      name,
		source:    source,
		transport: transport,
		interval:  interval,
		spectrum:  make([]float32, source.Size()),
		bins:      make([]float32, bins),
	}, nil
}

// Start launches the publishing goroutine. Subsequent calls are no-ops
// while it runs.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher(%s): Start called but already running.", p.name)
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call more
// than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher(%s): Stopped after %d frames (%d failed)", p.name, p.sent, p.failed)
	return nil
}

// publish sends the newest spectrum, if any arrived since the last tick.
func (p *Publisher) publish() {
	seq, ok := p.source.TryConsume(p.spectrum)
	if !ok {
		return
	}
	spectrum.Downsample(p.bins, p.spectrum)

	err := p.transport.Send(Frame{
		Seq:       seq,
		Timestamp: time.Now().UnixNano(),
		Bins:      p.bins,
	})
	if err != nil {
		p.failed++
		applog.Debugf("Publisher(%s): Send %d failed: %v", p.name, seq, err)
		return
	}
	p.sent++
}

// Close stops publishing and closes the transport.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.transport.Close()
}
