// SPDX-License-Identifier: MIT
package utils

import "math"

// ComplexWave returns a 440Hz fundamental with its second and third
// harmonics, peaking at 0.9 full scale.
func ComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// SineWave returns size samples of a sine at frequency with the given
// peak amplitude.
func SineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	FillSine(buffer, sampleRate, frequency, amplitude, 0)
	return buffer
}

// FillSine writes a sine into buf starting at phase (radians) and returns
// the phase following the last sample, wrapped to [0, 2π).
func FillSine(buf []float32, sampleRate, frequency, amplitude, phase float64) float64 {
	step := 2 * math.Pi * frequency / sampleRate
	for i := range buf {
		buf[i] = float32(amplitude * math.Sin(phase+step*float64(i)))
	}
	return math.Mod(phase+step*float64(len(buf)), 2*math.Pi)
}

func FindPeakBin(magnitudes []float32, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
