package conv

import (
	"fmt"

	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/internal/contract"
	"github.com/cwbudde/algo-upols/internal/lane"
)

// OverlapSaveT convolves a stream of fixed-size blocks with a kernel by
// transforming a sliding window of the last FFTSize() input samples and
// discarding the wrapped-around head of each circular result.
type OverlapSaveT[F fft.Float, C fft.Complex] struct {
	kernelLen int
	blockSize int
	fftSize   int

	plan   *fft.RealPlanT[F, C]
	ops    lane.Ops[F, C]
	kernel []C
	scale  F

	spectrum []C
	window   []F
	buf      []F

	applyKernel func([]C)
}

// OverlapSave is the float64 specialization.
type OverlapSave = OverlapSaveT[float64, complex128]

// NewOverlapSaveT creates an overlap-save convolver for kernel with
// blockSize samples per call.
func NewOverlapSaveT[F fft.Float, C fft.Complex](kernel []F, blockSize int, opts ...fft.Option) (*OverlapSaveT[F, C], error) {
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

	ols := &OverlapSaveT[F, C]{
		kernelLen: len(kernel),
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		ops:       lane.For[F, C](),
		kernel:    make([]C, plan.Bins()),
		scale:     F(1 / float64(fftSize)),
		spectrum:  make([]C, plan.Bins()),
		window:    make([]F, fftSize),
		buf:       make([]F, fftSize),
	}
	ols.applyKernel = ols.multiplyKernel

	copy(ols.buf, kernel)
	plan.Forward(ols.kernel, ols.buf)

	return ols, nil
}

// NewOverlapSave creates a float64 overlap-save convolver.
func NewOverlapSave(kernel []float64, blockSize int, opts ...fft.Option) (*OverlapSave, error) {
	return NewOverlapSaveT[float64, complex128](kernel, blockSize, opts...)
}

func (ols *OverlapSaveT[F, C]) multiplyKernel(spectrum []C) {
	ols.ops.Mul(spectrum, spectrum, ols.kernel)
}

// Process convolves block in place.
func (ols *OverlapSaveT[F, C]) Process(block []F) {
	ols.run(block, block, ols.applyKernel)
}

// ProcessTo convolves in and writes the result to out.
func (ols *OverlapSaveT[F, C]) ProcessTo(out, in []F) {
	ols.run(out, in, ols.applyKernel)
}

// ProcessFunc runs block through the transform in place, letting fn modify
// the unscaled spectrum of the current window.
func (ols *OverlapSaveT[F, C]) ProcessFunc(block []F, fn func(spectrum []C)) {
	ols.run(block, block, fn)
}

func (ols *OverlapSaveT[F, C]) run(out, in []F, fn func([]C)) {
	contract.RequireLen(len(in), ols.blockSize, "conv: overlap-save input")
	contract.RequireLen(len(out), ols.blockSize, "conv: overlap-save output")

	n, b := ols.fftSize, ols.blockSize
	copy(ols.window, ols.window[b:])
	copy(ols.window[n-b:], in)

	ols.plan.Forward(ols.spectrum, ols.window)
	fn(ols.spectrum)
	ols.plan.Inverse(ols.buf, ols.spectrum)
	ols.ops.Scale(out, ols.buf[n-b:], ols.scale)
}

// Reset clears the input history.
func (ols *OverlapSaveT[F, C]) Reset() {
	clear(ols.window)
}

// BlockSize returns the input block size.
func (ols *OverlapSaveT[F, C]) BlockSize() int { return ols.blockSize }

// FFTSize returns the FFT size used internally.
func (ols *OverlapSaveT[F, C]) FFTSize() int { return ols.fftSize }

// KernelLen returns the kernel length.
func (ols *OverlapSaveT[F, C]) KernelLen() int { return ols.kernelLen }
