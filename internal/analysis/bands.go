// SPDX-License-Identifier: MIT

// Package analysis derives coarse features from display spectra: per-band
// levels and onsets in the low end.
package analysis

import (
	"fmt"
	"math"
)

// Band is a named frequency range, LowHz inclusive and HighHz exclusive.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands covers the audible range. The last band extends to the
// spectrum's high cut.
var DefaultBands = []Band{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: math.Inf(1)},
}

// BandMeter computes the RMS level of each band of a spectrum whose bin i
// sits at highCut*i/len(spectrum).
type BandMeter struct {
	bands   []Band
	highCut float64
}

func NewBandMeter(bands []Band, highCut float64) (*BandMeter, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("band meter: no bands")
	}
	if highCut <= 0 {
		return nil, fmt.Errorf("band meter: high cut must be positive, got %v", highCut)
	}
	for _, b := range bands {
		if b.HighHz <= b.LowHz {
			return nil, fmt.Errorf("band meter: band %q is empty (%v..%v Hz)", b.Name, b.LowHz, b.HighHz)
		}
	}
	return &BandMeter{bands: bands, highCut: highCut}, nil
}

func (m *BandMeter) Bands() []Band { return m.bands }

// Measure writes one level per band into dst, which must have len(Bands()).
// Bands that contain no bin read 0.
func (m *BandMeter) Measure(dst []float64, spectrum []float32) {
	if len(spectrum) == 0 {
		clear(dst)
		return
	}
	hzPerBin := m.highCut / float64(len(spectrum))
	for i, b := range m.bands {
		lo := max(int(math.Ceil(b.LowHz/hzPerBin)), 0)
		hi := len(spectrum)
		if !math.IsInf(b.HighHz, 1) {
			hi = min(int(math.Ceil(b.HighHz/hzPerBin)), len(spectrum))
		}
		if lo >= hi {
			dst[i] = 0
			continue
		}
		var sum float64
		for _, v := range spectrum[lo:hi] {
			sum += float64(v) * float64(v)
		}
		dst[i] = math.Sqrt(sum / float64(hi-lo))
	}
}
