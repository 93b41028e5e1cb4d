package fft

import (
	"math"
	"math/bits"
)

// twiddles returns the n/2 forward twiddle factors exp(-2πik/n).
// The angle is computed in float64 for every k rather than by recurrence so
// that complex64 tables carry no accumulated phase error.
func twiddles(n int) []complex128 {
	tw := make([]complex128, n/2)
	for k := range tw {
		sin, cos := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		tw[k] = complex(cos, sin)
	}
	return tw
}

// bitReversal returns the bit-reversed index table for a transform of
// size 1<<order.
func bitReversal(order int) []int {
	n := 1 << order
	rev := make([]int, n)
	if order == 0 {
		return rev
	}
	shift := bits.UintSize - order
	for i := range rev {
		rev[i] = int(bits.Reverse(uint(i)) >> shift)
	}
	return rev
}
