// SPDX-License-Identifier: MIT
package spectrum

// Downsample averages contiguous runs of src into len(dst) columns. Column c
// covers src[c*len(src)/len(dst) : (c+1)*len(src)/len(dst)], at least one
// element wide, so it also stretches a short src over a wide dst.
func Downsample(dst, src []float32) {
	n, m := len(dst), len(src)
	if n == 0 {
		return
	}
	if m == 0 {
		clear(dst)
		return
	}
	for c := range dst {
		start := c * m / n
		end := (c + 1) * m / n
		if end <= start {
			end = start + 1
		}
		var sum float32
		for _, v := range src[start:end] {
			sum += v
		}
		dst[c] = sum / float32(end-start)
	}
}
