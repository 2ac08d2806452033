// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"math"
	"os"
	"time"

	applog "spectralyzer/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultMaxConsecutiveWriteFailures stops recording after this many
// failed frame writes in a row.
const DefaultMaxConsecutiveWriteFailures = 5

// DefaultRecordBitDepth is used when no bit depth is configured.
const DefaultRecordBitDepth = 16

type sampleEncoder interface {
	Write(buf *audio.IntBuffer) error
	Close() error
}

// Recorder tees every frame read from its source into a PCM WAV file.
// Recording failures never fail Read.
type Recorder struct {
	src  Source
	path string

	file      *os.File
	enc       sampleEncoder
	sampleBuf *audio.IntBuffer
	fullScale float64

	recording   bool
	failures    int
	maxFailures int
	frames      uint64
}

// NewRecorder creates path and starts recording src into it. bitDepth must
// be 16, 24 or 32; zero selects DefaultRecordBitDepth.
func NewRecorder(src Source, path string, bitDepth int) (*Recorder, error) {
	if bitDepth == 0 {
		bitDepth = DefaultRecordBitDepth
	}
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("unsupported recording bit depth %d", bitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}

	rate := int(src.SampleRate())
	applog.Infof("Recorder: Writing %d-bit mono WAV to '%s'", bitDepth, path)
	return &Recorder{
		src:  src,
		path: path,
		file: file,
		enc:  wav.NewEncoder(file, rate, bitDepth, 1, 1),
		sampleBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
			SourceBitDepth: bitDepth,
		},
		fullScale:   math.Exp2(float64(bitDepth-1)) - 1,
		recording:   true,
		maxFailures: DefaultMaxConsecutiveWriteFailures,
	}, nil
}

func (r *Recorder) Read(frame []float32) error {
	if err := r.src.Read(frame); err != nil {
		return err
	}
	if r.recording {
		r.write(frame)
	}
	return nil
}

func (r *Recorder) write(frame []float32) {
	if cap(r.sampleBuf.Data) < len(frame) {
		r.sampleBuf.Data = make([]int, len(frame))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(frame)]
	for i, s := range frame {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.sampleBuf.Data[i] = int(math.Round(float64(s) * r.fullScale))
	}

	if err := r.enc.Write(r.sampleBuf); err != nil {
		r.failures++
		applog.Warnf("Recorder: Write failed (%d/%d): %v", r.failures, r.maxFailures, err)
		if r.failures >= r.maxFailures {
			applog.Errorf("Recorder: Giving up on '%s' after %d consecutive write failures", r.path, r.failures)
			if err := r.stop(); err != nil {
				applog.Errorf("Recorder: %v", err)
			}
		}
		return
	}
	r.failures = 0
	r.frames++
}

// Recording reports whether frames are still being written.
func (r *Recorder) Recording() bool { return r.recording }

func (r *Recorder) stop() error {
	if r.enc == nil {
		return nil
	}
	r.recording = false

	var firstErr error
	if err := r.enc.Close(); err != nil {
		firstErr = fmt.Errorf("finalize recording: %w", err)
	}
	r.enc = nil
	if err := r.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close recording: %w", err)
	}
	r.file = nil
	applog.Infof("Recorder: Stopped '%s' after %d frames", r.path, r.frames)
	return firstErr
}

func (r *Recorder) SampleRate() float64    { return r.src.SampleRate() }
func (r *Recorder) Latency() time.Duration { return r.src.Latency() }
func (r *Recorder) Interrupt() error       { return interrupt(r.src) }

// Close finalizes the WAV file and closes the source.
func (r *Recorder) Close() error {
	stopErr := r.stop()
	if err := r.src.Close(); err != nil {
		return err
	}
	return stopErr
}

var (
	_ Source      = (*Recorder)(nil)
	_ Interrupter = (*Recorder)(nil)
)
