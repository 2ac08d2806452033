// SPDX-License-Identifier: MIT
package capture

import (
	"sync"
	"time"
)

// pacer releases samples no faster than real time. A zero-rate or
// disabled pacer never waits. Interrupt unblocks wait permanently.
type pacer struct {
	rate    float64
	enabled bool

	start  time.Time
	served int64

	once sync.Once
	stop chan struct{}
}

func newPacer(rate float64, enabled bool) *pacer {
	return &pacer{rate: rate, enabled: enabled, stop: make(chan struct{})}
}

// wait blocks until n more samples are due and reports false when
// interrupted.
func (p *pacer) wait(n int) bool {
	select {
	case <-p.stop:
		return false
	default:
	}
	if !p.enabled || p.rate <= 0 {
		p.served += int64(n)
		return true
	}

	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.served += int64(n)
	due := p.start.Add(time.Duration(float64(p.served) / p.rate * float64(time.Second)))
	d := time.Until(due)
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-p.stop:
		return false
	}
}

func (p *pacer) interrupt() {
	p.once.Do(func() { close(p.stop) })
}
