package conv

import (
	"fmt"

	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/internal/contract"
	"github.com/cwbudde/algo-upols/internal/lane"
)

// OverlapAddT convolves a stream of fixed-size blocks with a kernel using
// a single transform per block.
//
// The algorithm:
//  1. Zero-pad the input block to the FFT size (next power of two >= B+F-1)
//  2. Transform, apply the spectral callback (the kernel product by default)
//  3. Inverse transform and scale by 1/N
//  4. Emit the first B samples plus the saved tail; save the rest
//
// One result spans NumPartitions() blocks, so the saved tail holds the
// contributions of that many earlier blocks.
type OverlapAddT[F fft.Float, C fft.Complex] struct {
	kernelLen int
	blockSize int
	fftSize   int

	plan   *fft.RealPlanT[F, C]
	ops    lane.Ops[F, C]
	kernel []C
	scale  F

	spectrum []C
	buf      []F
	carry    []F

	applyKernel func([]C)
}

// OverlapAdd is the float64 specialization.
type OverlapAdd = OverlapAddT[float64, complex128]

// NewOverlapAddT creates an overlap-add convolver for kernel with blockSize
// samples per call.
func NewOverlapAddT[F fft.Float, C fft.Complex](kernel []F, blockSize int, opts ...fft.Option) (*OverlapAddT[F, C], error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	fftSize := max(fft.NextPowerOf2(blockSize+len(kernel)-1), 2)
	plan, err := fft.NewRealPlanT[F, C](fft.Log2(fftSize), opts...)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	oa := &OverlapAddT[F, C]{
		kernelLen: len(kernel),
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		ops:       lane.For[F, C](),
		kernel:    make([]C, plan.Bins()),
		scale:     F(1 / float64(fftSize)),
		spectrum:  make([]C, plan.Bins()),
		buf:       make([]F, fftSize),
		carry:     make([]F, fftSize-blockSize),
	}
	oa.applyKernel = oa.multiplyKernel

	copy(oa.buf, kernel)
	plan.Forward(oa.kernel, oa.buf)
	clear(oa.buf)

	return oa, nil
}

// NewOverlapAdd creates a float64 overlap-add convolver.
func NewOverlapAdd(kernel []float64, blockSize int, opts ...fft.Option) (*OverlapAdd, error) {
	return NewOverlapAddT[float64, complex128](kernel, blockSize, opts...)
}

func (oa *OverlapAddT[F, C]) multiplyKernel(spectrum []C) {
	oa.ops.Mul(spectrum, spectrum, oa.kernel)
}

// Process convolves block in place.
func (oa *OverlapAddT[F, C]) Process(block []F) {
	oa.run(block, block, oa.applyKernel)
}

// ProcessTo convolves in and writes the result to out.
func (oa *OverlapAddT[F, C]) ProcessTo(out, in []F) {
	oa.run(out, in, oa.applyKernel)
}

// ProcessFunc runs block through the transform in place, letting fn modify
// the spectrum in place of the kernel product. fn sees FFTSize()/2+1 bins of
// the unscaled spectrum.
func (oa *OverlapAddT[F, C]) ProcessFunc(block []F, fn func(spectrum []C)) {
	oa.run(block, block, fn)
}

func (oa *OverlapAddT[F, C]) run(out, in []F, fn func([]C)) {
	contract.RequireLen(len(in), oa.blockSize, "conv: overlap-add input")
	contract.RequireLen(len(out), oa.blockSize, "conv: overlap-add output")

	b := oa.blockSize
	clear(oa.buf[b:])
	copy(oa.buf[:b], in)

	oa.plan.Forward(oa.spectrum, oa.buf)
	fn(oa.spectrum)
	oa.plan.Inverse(oa.buf, oa.spectrum)
	oa.ops.Scale(oa.buf, oa.buf, oa.scale)

	for i := range out {
		out[i] = oa.buf[i]
		if i < len(oa.carry) {
			out[i] += oa.carry[i]
		}
	}

	// Shift the saved tail by one block and add the new tail.
	for j := range oa.carry {
		next := oa.buf[b+j]
		if j+b < len(oa.carry) {
			next += oa.carry[j+b]
		}
		oa.carry[j] = next
	}
}

// Reset clears the saved tail.
func (oa *OverlapAddT[F, C]) Reset() {
	clear(oa.carry)
}

// BlockSize returns the input block size.
func (oa *OverlapAddT[F, C]) BlockSize() int { return oa.blockSize }

// FFTSize returns the FFT size used internally.
func (oa *OverlapAddT[F, C]) FFTSize() int { return oa.fftSize }

// KernelLen returns the kernel length.
func (oa *OverlapAddT[F, C]) KernelLen() int { return oa.kernelLen }

// NumPartitions returns how many blocks one result spans.
func (oa *OverlapAddT[F, C]) NumPartitions() int {
	return NumOverlapPartitions(oa.blockSize, oa.kernelLen)
}
