// SPDX-License-Identifier: MIT

// Package slot implements the single piece of state shared between the
// spectrum producer and its consumers: one spectrum buffer, a dirty flag and
// a mutex.
//
// Publish overwrites the live buffer (latest wins, an unconsumed spectrum is
// counted as overwritten) and TryConsume copies it out only when it holds
// something new. Both hold the lock for the duration of one copy of the
// spectrum and never wait on each other, so a stalled renderer cannot block
// capture and a stalled producer leaves the renderer drawing the last frame.
package slot

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSizeMismatch is returned when a spectrum does not match the slot size.
var ErrSizeMismatch = errors.New("spectrum size mismatch")

// Stats is a snapshot of slot activity.
type Stats struct {
	Published   uint64 // Completed Publish calls.
	Consumed    uint64 // TryConsume calls that returned data.
	Overwritten uint64 // Spectra replaced before anyone consumed them.
}

// Slot is a mutex-guarded single-spectrum mailbox. The zero value is not
// usable, construct with New.
type Slot struct {
	mu    sync.Mutex
	live  []float32
	dirty bool
	seq   uint64
	stats Stats
}

// New allocates a slot for spectra of size bins.
func New(size int) (*Slot, error) {
	if size <= 0 {
		return nil, fmt.Errorf("slot size must be positive, got %d", size)
	}
	return &Slot{live: make([]float32, size)}, nil
}

// Size returns the number of bins the slot holds.
func (s *Slot) Size() int {
	return len(s.live)
}

// Publish copies spectrum into the slot and marks it dirty. It returns the
// generation assigned to this spectrum.
func (s *Slot) Publish(spectrum []float32) (uint64, error) {
	if len(spectrum) != len(s.live) {
		return 0, fmt.Errorf("%w: got %d bins, slot holds %d", ErrSizeMismatch, len(spectrum), len(s.live))
	}

	s.mu.Lock()
	copy(s.live, spectrum)
	if s.dirty {
		s.stats.Overwritten++
	}
	s.seq++
	s.dirty = true
	s.stats.Published++
	seq := s.seq
	s.mu.Unlock()

	return seq, nil
}

// TryConsume copies the live spectrum into dst if it has not been consumed
// yet and clears the dirty flag. It returns false without touching dst when
// there is nothing new or dst has the wrong size.
func (s *Slot) TryConsume(dst []float32) (uint64, bool) {
	if len(dst) != len(s.live) {
		return 0, false
	}

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return 0, false
	}
	copy(dst, s.live)
	s.dirty = false
	s.stats.Consumed++
	seq := s.seq
	s.mu.Unlock()

	return seq, true
}

// Dirty reports whether an unconsumed spectrum is waiting.
func (s *Slot) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Stats returns a snapshot of the slot counters.
func (s *Slot) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
