// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"time"
)

// sliceSource serves samples from a slice, then fails with err.
type sliceSource struct {
	samples     []float32
	pos         int
	rate        float64
	err         error
	interrupted bool
	closed      int
}

func (s *sliceSource) SampleRate() float64    { return s.rate }
func (s *sliceSource) Latency() time.Duration { return time.Millisecond }

func (s *sliceSource) Read(frame []float32) error {
	if s.pos+len(frame) > len(s.samples) {
		if s.err != nil {
			return s.err
		}
		return errors.New("sliceSource exhausted")
	}
	copy(frame, s.samples[s.pos:])
	s.pos += len(frame)
	return nil
}

func (s *sliceSource) Interrupt() error {
	s.interrupted = true
	return nil
}

func (s *sliceSource) Close() error {
	s.closed++
	return nil
}
