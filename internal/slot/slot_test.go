// SPDX-License-Identifier: MIT
package slot

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

const testBins = 2000

func TestPublishThenConsume(t *testing.T) {
	s, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	want := []float32{0.1, 0.2, 0.3, 0.4}
	seq, err := s.Publish(want)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if seq != 1 {
		t.Errorf("first generation = %d, want 1", seq)
	}

	got := make([]float32, 4)
	gotSeq, ok := s.TryConsume(got)
	if !ok {
		t.Fatal("TryConsume after Publish should return data")
	}
	if gotSeq != seq {
		t.Errorf("consumed generation %d, want %d", gotSeq, seq)
	}
	if !slices.Equal(got, want) {
		t.Errorf("consumed %v, want %v", got, want)
	}
	if s.Dirty() {
		t.Error("dirty flag should be cleared after consume")
	}

	got[0] = 42
	if _, ok := s.TryConsume(got); ok {
		t.Error("second TryConsume without Publish should report nothing new")
	}
	if got[0] != 42 {
		t.Error("TryConsume must leave dst untouched when nothing is new")
	}
}

func TestPublishCopiesInput(t *testing.T) {
	s, _ := New(3)
	in := []float32{1, 2, 3}
	if _, err := s.Publish(in); err != nil {
		t.Fatal(err)
	}
	in[0] = 99

	out := make([]float32, 3)
	s.TryConsume(out)
	if out[0] != 1 {
		t.Errorf("slot retained caller memory: got %v", out)
	}
}

func TestSizeMismatch(t *testing.T) {
	s, _ := New(3)

	if _, err := s.Publish([]float32{1, 2}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
	if s.Dirty() {
		t.Error("rejected publish must not set the dirty flag")
	}

	s.Publish([]float32{1, 2, 3})
	if _, ok := s.TryConsume(make([]float32, 2)); ok {
		t.Error("TryConsume into a short buffer should fail")
	}
	if !s.Dirty() {
		t.Error("failed consume must not clear the dirty flag")
	}
}

func TestStatsCountOverwrites(t *testing.T) {
	s, _ := New(1)
	for i := range 3 {
		s.Publish([]float32{float32(i)})
	}
	s.TryConsume(make([]float32, 1))

	got := s.Stats()
	want := Stats{Published: 3, Consumed: 1, Overwritten: 2}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestNewRejectsInvalidSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) should fail")
	}
}

// TestConsumerNeverSeesTornSpectrum tags every bin of a published spectrum
// with its generation and checks that each consumed spectrum carries a
// single generation throughout.
func TestConsumerNeverSeesTornSpectrum(t *testing.T) {
	s, _ := New(testBins)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		spectrum := make([]float32, testBins)
		for gen := float32(1); ; gen++ {
			select {
			case <-stop:
				return
			default:
			}
			for i := range spectrum {
				spectrum[i] = gen
			}
			if _, err := s.Publish(spectrum); err != nil {
				t.Errorf("Publish error: %v", err)
				return
			}
		}
	}()

	dst := make([]float32, testBins)
	consumed := 0
	lastSeq := uint64(0)
	deadline := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case <-deadline:
			break loop
		default:
		}
		seq, ok := s.TryConsume(dst)
		if !ok {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		consumed++
		if seq <= lastSeq {
			t.Fatalf("generation went backwards: %d after %d", seq, lastSeq)
		}
		lastSeq = seq
		for i, v := range dst {
			if v != dst[0] {
				t.Fatalf("torn spectrum: bin 0 has generation %v, bin %d has %v", dst[0], i, v)
			}
		}
		if uint64(dst[0]) != seq {
			t.Fatalf("bins carry generation %v but slot reported %d", dst[0], seq)
		}
		time.Sleep(time.Millisecond)
	}

	close(stop)
	wg.Wait()

	if consumed == 0 {
		t.Fatal("consumer never received a spectrum")
	}
	t.Logf("consumed %d spectra, %+v", consumed, s.Stats())
}

func TestConsumeZeroAllocs(t *testing.T) {
	s, _ := New(testBins)
	src := make([]float32, testBins)
	dst := make([]float32, testBins)

	allocs := testing.AllocsPerRun(100, func() {
		s.Publish(src)
		s.TryConsume(dst)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in publish/consume hot path, got %.1f", allocs)
	}
}
