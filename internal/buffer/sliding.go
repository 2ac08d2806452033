// SPDX-License-Identifier: MIT

// Package buffer holds the rolling sample history fed to the spectrum
// transform. It is owned by the producer goroutine and is not safe for
// concurrent use.
package buffer

import "fmt"

// Sliding keeps the most recent len(window) samples in chronological order,
// oldest at index 0.
type Sliding struct {
	window []float32
}

// New allocates a zeroed window of size samples.
func New(size int) (*Sliding, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	return &Sliding{window: make([]float32, size)}, nil
}

// Push discards the len(frame) oldest samples and appends frame. A frame
// longer than the window leaves only its last len(window) samples.
func (s *Sliding) Push(frame []float32) {
	n := len(frame)
	size := len(s.window)
	if n >= size {
		copy(s.window, frame[n-size:])
		return
	}
	// copy is memmove-safe for the overlapping shift.
	copy(s.window, s.window[n:])
	copy(s.window[size-n:], frame)
}

// Window returns the backing slice. Callers must not retain it past the
// next Push.
func (s *Sliding) Window() []float32 {
	return s.window
}

// Len returns the window size in samples.
func (s *Sliding) Len() int {
	return len(s.window)
}

// Reset zeroes the history.
func (s *Sliding) Reset() {
	clear(s.window)
}
