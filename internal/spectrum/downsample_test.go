// SPDX-License-Identifier: MIT
package spectrum

import (
	"slices"
	"testing"
)

func TestDownsample(t *testing.T) {
	tests := []struct {
		name string
		src  []float32
		n    int
		want []float32
	}{
		{"Exact runs", []float32{1, 3, 5, 7, 9, 11}, 3, []float32{2, 6, 10}},
		{"Uneven runs", []float32{1, 2, 3, 4, 5}, 2, []float32{1.5, 4}},
		{"Identity", []float32{4, 5, 6}, 3, []float32{4, 5, 6}},
		{"Stretch", []float32{2, 8}, 4, []float32{2, 2, 8, 8}},
		{"Empty source", nil, 2, []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, tt.n)
			for i := range dst {
				dst[i] = -1
			}
			Downsample(dst, tt.src)
			if !slices.Equal(dst, tt.want) {
				t.Errorf("Downsample(%v) into %d = %v, want %v", tt.src, tt.n, dst, tt.want)
			}
		})
	}
}

func TestDownsampleZeroAllocs(t *testing.T) {
	src := make([]float32, 20000)
	dst := make([]float32, 1500)

	allocs := testing.AllocsPerRun(100, func() {
		Downsample(dst, src)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Downsample, got %.1f", allocs)
	}
}
