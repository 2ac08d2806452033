// SPDX-License-Identifier: MIT
package capture

import "time"

// Gate silences frames whose peak amplitude stays below a threshold.
type Gate struct {
	src       Source
	threshold float32
	closed    uint64
}

// NewGate wraps src. The threshold is clamped to 0.0-1.0 where 0 is always
// open and 1 always closed.
func NewGate(src Source, threshold float64) *Gate {
	g := &Gate{src: src}
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) SetThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	g.threshold = float32(threshold)
}

func (g *Gate) Threshold() float64 { return float64(g.threshold) }

// Closed reports how many frames were silenced.
func (g *Gate) Closed() uint64 { return g.closed }

func (g *Gate) Read(frame []float32) error {
	if err := g.src.Read(frame); err != nil {
		return err
	}
	if g.threshold > 0 && peak(frame) < g.threshold {
		clear(frame)
		g.closed++
	}
	return nil
}

func (g *Gate) SampleRate() float64    { return g.src.SampleRate() }
func (g *Gate) Latency() time.Duration { return g.src.Latency() }
func (g *Gate) Interrupt() error       { return interrupt(g.src) }
func (g *Gate) Close() error           { return g.src.Close() }

func peak(frame []float32) float32 {
	var maxAmplitude float32
	for _, s := range frame {
		if s < 0 {
			s = -s
		}
		if s > maxAmplitude {
			maxAmplitude = s
		}
	}
	return maxAmplitude
}

var (
	_ Source      = (*Gate)(nil)
	_ Interrupter = (*Gate)(nil)
)
