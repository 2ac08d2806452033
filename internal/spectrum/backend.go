// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"strings"

	dspfft "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend runs a real-to-complex transform of a fixed length n, writing the
// n/2+1 non-negative frequency bins into dst.
type Backend interface {
	Coefficients(dst []complex128, src []float64) []complex128
	Len() int
}

// Backend names accepted by NewBackend.
const (
	BackendGonum = "gonum"
	BackendGoDSP = "godsp"
)

// NewBackend plans a transform of length n. The gonum backend plans once
// and reuses its twiddle factors; the go-dsp backend plans on every call.
// Both produce the same bins.
func NewBackend(name string, n int) (Backend, error) {
	if n <= 0 {
		return nil, fmt.Errorf("transform length must be positive, got %d", n)
	}
	switch strings.ToLower(name) {
	case BackendGonum, "":
		return gonumBackend{fourier.NewFFT(n)}, nil
	case BackendGoDSP, "go-dsp":
		return goDSPBackend{n: n}, nil
	default:
		return nil, fmt.Errorf("unknown FFT backend: '%s'", name)
	}
}

type gonumBackend struct {
	fft *fourier.FFT
}

func (b gonumBackend) Coefficients(dst []complex128, src []float64) []complex128 {
	return b.fft.Coefficients(dst, src)
}

func (b gonumBackend) Len() int { return b.fft.Len() }

type goDSPBackend struct {
	n int
}

func (b goDSPBackend) Coefficients(dst []complex128, src []float64) []complex128 {
	full := dspfft.FFTReal(src)
	if dst == nil {
		dst = make([]complex128, b.n/2+1)
	}
	copy(dst, full[:len(dst)])
	return dst
}

func (b goDSPBackend) Len() int { return b.n }
