// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"strings"
	"time"

	"spectralyzer/internal/analysis"
	applog "spectralyzer/internal/log"
	"spectralyzer/pkg/utils"
)

// Onset detection on the bass band.
const (
	bassBand       = 1
	onsetThreshold = 0.05
	onsetRatio     = 1.5
	onsetCooldown  = 100 * time.Millisecond
)

// LoggingTransport logs a one-line summary of each frame at debug level,
// at most once per interval: the peak bin, per-band levels and the number
// of bass onsets seen so far.
type LoggingTransport struct {
	limiter  *applog.Limiter
	hzPerBin float64

	meter  *analysis.BandMeter
	levels []float64
	onsets *analysis.OnsetDetector
}

// NewLoggingTransport reports peaks in Hz given the exported frequency
// range.
func NewLoggingTransport(interval time.Duration, highCut float64, bins int) *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	lt := &LoggingTransport{
		limiter: applog.NewLimiter(interval),
		onsets:  analysis.NewOnsetDetector(onsetThreshold, onsetRatio, onsetCooldown),
	}
	if bins > 0 {
		lt.hzPerBin = highCut / float64(bins)
	}
	meter, err := analysis.NewBandMeter(analysis.DefaultBands, highCut)
	if err != nil {
		applog.Warnf("Transport: Band levels disabled: %v", err)
		return lt
	}
	lt.meter = meter
	lt.levels = make([]float64, len(meter.Bands()))
	return lt
}

func (lt *LoggingTransport) Send(f Frame) error {
	if len(f.Bins) == 0 {
		return nil
	}
	if lt.meter != nil {
		lt.meter.Measure(lt.levels, f.Bins)
		if lt.onsets.Process(lt.levels[bassBand], f.Time()) {
			applog.Debugf("LOG_TRANSPORT: seq %d bass onset (level %.3f)", f.Seq, lt.levels[bassBand])
		}
	}

	if ok, skipped := lt.limiter.Allow(); ok {
		peak := utils.FindPeakBin(f.Bins, 0, len(f.Bins)-1)
		applog.Debugf("LOG_TRANSPORT: seq %d peak bin %d (~%.0f Hz) = %.3f%s (%d frames skipped)",
			f.Seq, peak, float64(peak)*lt.hzPerBin, f.Bins[peak], lt.bandSummary(), skipped)
	}
	return nil
}

func (lt *LoggingTransport) bandSummary() string {
	if lt.meter == nil {
		return ""
	}
	var sb strings.Builder
	for i, b := range lt.meter.Bands() {
		fmt.Fprintf(&sb, " %s=%.3f", b.Name, lt.levels[i])
	}
	fmt.Fprintf(&sb, " onsets=%d", lt.onsets.Detected())
	return sb.String()
}

// Onsets counts bass onsets seen so far.
func (lt *LoggingTransport) Onsets() uint64 { return lt.onsets.Detected() }

func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called.")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
