// Package testutil holds signal generators and tolerance helpers shared by
// the package tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// Float is the set of sample types the helpers accept.
type Float interface {
	~float32 | ~float64
}

// Noise returns uniform white noise in [-amplitude, amplitude) from a PCG
// source seeded with seed, so every run sees the same samples.
func Noise[F Float](seed uint64, amplitude float64, length int) []F {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]F, length)
	for i := range out {
		out[i] = F((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Sine returns a sine wave starting at phase 0.
func Sine[F Float](freqHz, sampleRate, amplitude float64, length int) []F {
	out := make([]F, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = F(amplitude * math.Sin(step*float64(i)))
	}
	return out
}

// Impulse returns a unit impulse at pos (all zeros if pos is out of range).
func Impulse[F Float](length, pos int) []F {
	out := make([]F, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DecayingNoise returns noise shaped by exp(-i/tau), a crude room response.
func DecayingNoise[F Float](seed uint64, length int, tau float64) []F {
	out := Noise[F](seed, 1, length)
	for i := range out {
		out[i] *= F(math.Exp(-float64(i) / tau))
	}
	return out
}

// Convert copies src into a new slice of another float type.
func Convert[To, From Float](src []From) []To {
	out := make([]To, len(src))
	for i, v := range src {
		out[i] = To(v)
	}
	return out
}

// Chunk splits x into consecutive pieces of the given sizes, cycling through
// sizes until x is exhausted. The last piece may be shorter.
func Chunk[F Float](x []F, sizes ...int) [][]F {
	var out [][]F
	for i := 0; len(x) > 0; i++ {
		n := min(sizes[i%len(sizes)], len(x))
		out = append(out, x[:n])
		x = x[n:]
	}
	return out
}
