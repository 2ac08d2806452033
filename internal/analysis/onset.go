// SPDX-License-Identifier: MIT
package analysis

import "time"

// OnsetDetector flags sudden rises in a level, such as kick drums in the
// bass band. An onset needs the level above Threshold and at least Ratio
// times the previous level. After an onset, detection pauses for Cooldown.
type OnsetDetector struct {
	Threshold float64
	Ratio     float64
	Cooldown  time.Duration

	last     float64
	lastHit  time.Time
	detected uint64
}

func NewOnsetDetector(threshold, ratio float64, cooldown time.Duration) *OnsetDetector {
	return &OnsetDetector{Threshold: threshold, Ratio: ratio, Cooldown: cooldown}
}

// Process feeds the level observed at now and reports an onset.
func (d *OnsetDetector) Process(level float64, now time.Time) bool {
	prev := d.last
	d.last = level

	if level <= d.Threshold {
		return false
	}
	if prev > 0 && level/prev <= d.Ratio {
		return false
	}
	if !d.lastHit.IsZero() && now.Sub(d.lastHit) < d.Cooldown {
		return false
	}
	d.lastHit = now
	d.detected++
	return true
}

// Detected counts onsets since creation.
func (d *OnsetDetector) Detected() uint64 { return d.detected }
