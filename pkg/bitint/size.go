// SPDX-License-Identifier: MIT

// Package bitint sizes transform buffers. Mixed radix FFTs run fastest on
// lengths whose prime factors are all 2, 3 or 5 ("5-smooth"); powers of two
// are the special case with a single factor.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size, or 1 for size <= 0.
// size-1 keeps exact powers of two unchanged: Len(7) = 3, 1<<3 = 8.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsSmooth reports whether n is positive and has no prime factor above 5.
func IsSmooth(n int) bool {
	if n <= 0 {
		return false
	}
	n >>= bits.TrailingZeros(uint(n))
	for _, p := range [...]int{3, 5} {
		for n%p == 0 {
			n /= p
		}
	}
	return n == 1
}

// NextSmooth returns the smallest 5-smooth number >= n, or 1 for n <= 1.
// It never exceeds NextPowerOfTwo(n).
func NextSmooth(n int) int {
	if n <= 1 {
		return 1
	}
	best := NextPowerOfTwo(n)
	for p5 := 1; p5 < best; p5 *= 5 {
		for p35 := p5; p35 < best; p35 *= 3 {
			// Smallest power of two that lifts p35 to at least n.
			m := p35
			if m < n {
				m <<= bits.Len(uint((n - 1) / m))
			}
			best = min(best, m)
		}
	}
	return best
}
