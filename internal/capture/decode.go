// SPDX-License-Identifier: MIT
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// decoded is a fully decoded mono signal.
type decoded struct {
	samples []float32
	rate    int
}

type decodeFunc func(r io.ReadSeeker) (decoded, error)

var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".wave": decodeWAV,
	".mp3":  decodeMP3,
	".ogg":  decodeVorbis,
	".oga":  decodeVorbis,
}

// decodeFile picks a decoder by file extension.
func decodeFile(path string) (decoded, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return decoded{}, fmt.Errorf("unsupported audio file type '%s'", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return decoded{}, err
	}
	defer f.Close()

	d, err := decode(f)
	if err != nil {
		return decoded{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if d.rate <= 0 {
		return decoded{}, fmt.Errorf("decode %s: invalid sample rate %d", filepath.Base(path), d.rate)
	}
	return d, nil
}

func decodeWAV(r io.ReadSeeker) (decoded, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return decoded{}, fmt.Errorf("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return decoded{}, err
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return decoded{}, fmt.Errorf("WAV file has no channels")
	}

	depth := int(dec.BitDepth)
	if depth <= 0 {
		depth = buf.SourceBitDepth
	}
	if depth <= 0 || depth > 32 {
		return decoded{}, fmt.Errorf("unsupported WAV bit depth %d", depth)
	}
	scale := 1 / float32(int64(1)<<(depth-1))

	interleaved := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = float32(v) * scale
	}
	return decoded{
		samples: mixToMono(interleaved, buf.Format.NumChannels),
		rate:    buf.Format.SampleRate,
	}, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.ReadSeeker) (decoded, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return decoded{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return decoded{}, err
	}

	interleaved := make([]float32, len(raw)/2)
	for i := range interleaved {
		interleaved[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return decoded{samples: mixToMono(interleaved, 2), rate: dec.SampleRate()}, nil
}

func decodeVorbis(r io.ReadSeeker) (decoded, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return decoded{}, err
	}
	return decoded{samples: mixToMono(data, format.Channels), rate: format.SampleRate}, nil
}

// mixToMono averages interleaved channels. A trailing partial frame is
// dropped.
func mixToMono(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	mono := make([]float32, len(interleaved)/channels)
	for i := range mono {
		var sum float32
		for _, v := range interleaved[i*channels : (i+1)*channels] {
			sum += v
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// resampleLinear converts src from rate `from` to rate `to` by linear
// interpolation.
func resampleLinear(src []float32, from, to float64) []float32 {
	if from == to || len(src) == 0 {
		return src
	}
	n := int(float64(len(src)) * to / from)
	out := make([]float32, n)
	step := from / to
	last := len(src) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = src[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = src[j] + (src[j+1]-src[j])*frac
	}
	return out
}
