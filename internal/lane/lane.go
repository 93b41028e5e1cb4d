// Package lane provides the block kernels used on the convolution hot path.
//
// Each precision gets one Ops value holding function pointers to the best
// kernels for the build. The selection happens once, when an engine is
// constructed; the processing loop only calls through the pointers it was
// given. Build with the purego tag to force the scalar kernels everywhere.
package lane

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath/cpu"
	simdcpu "github.com/tphakala/simd/cpu"
)

// Float is the type constraint for supported sample types.
type Float = algofft.Float

// Complex is the type constraint for supported spectrum types.
type Complex = algofft.Complex

// Ops holds the block kernels for one sample/spectrum precision.
type Ops[F Float, C Complex] struct {
	// MulAcc computes acc[i] += a[i] * b[i]. tmp is scratch of the same
	// length that an implementation may clobber.
	MulAcc func(acc, a, b, tmp []C)

	// Mul computes dst[i] = a[i] * b[i].
	Mul func(dst, a, b []C)

	// Scale computes dst[i] = src[i] * s.
	Scale func(dst, src []F, s F)

	// Interleave2 writes dst[2i] = a[i], dst[2i+1] = b[i].
	Interleave2 func(dst, a, b []F)

	// Name identifies the kernel set, e.g. "simd" or "generic".
	Name string
}

// For returns the kernels for the F/C pair.
func For[F Float, C Complex]() Ops[F, C] {
	ops := Ops[F, C]{
		MulAcc:      mulAccGeneric[C],
		Mul:         mulGeneric[C],
		Scale:       scaleGeneric[F],
		Interleave2: interleave2Generic[F],
		Name:        "generic",
	}
	accelerate(&ops)
	return ops
}

// Describe reports the vector units the kernels can use on this machine.
func Describe() string {
	f := cpu.DetectFeatures()
	level := "none"
	switch {
	case f.ForceGeneric:
		level = "forced-generic"
	case f.HasAVX512:
		level = "avx512"
	case f.HasAVX2:
		level = "avx2"
	case f.HasAVX:
		level = "avx"
	case f.HasSSE2:
		level = "sse2"
	case f.HasNEON:
		level = "neon"
	}
	return fmt.Sprintf("%s/%s (%s)", f.Architecture, level, simdcpu.Info())
}

func mulAccGeneric[C Complex](acc, a, b, _ []C) {
	a = a[:len(acc)]
	b = b[:len(acc)]
	for i := range acc {
		acc[i] += a[i] * b[i]
	}
}

func mulGeneric[C Complex](dst, a, b []C) {
	a = a[:len(dst)]
	b = b[:len(dst)]
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func scaleGeneric[F Float](dst, src []F, s F) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] = src[i] * s
	}
}

func interleave2Generic[F Float](dst, a, b []F) {
	n := min(len(a), len(b), len(dst)/2)
	for i := range n {
		dst[2*i] = a[i]
		dst[2*i+1] = b[i]
	}
}
