package conv

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by convolution setup functions.
var (
	ErrEmptyInput            = errors.New("conv: empty input")
	ErrEmptyKernel           = errors.New("conv: empty kernel")
	ErrLengthMismatch        = errors.New("conv: buffer length mismatch")
	ErrInvalidBlockSize      = errors.New("conv: invalid block size")
	ErrEmptyImpulseResponse  = errors.New("conv: empty impulse response")
	ErrChannelLengthMismatch = errors.New("conv: channels differ in length")
	ErrFilterMismatch        = errors.New("conv: filter does not match engine")
	ErrInvalidShape          = errors.New("conv: invalid matrix shape")
	ErrIndexOutOfRange       = errors.New("conv: index out of range")
)

// BlockConvolver is a streaming convolver with a fixed block size.
//
// Process and ProcessTo run on the audio path: they do not allocate and do
// not return errors. Passing a buffer whose length differs from BlockSize is
// a contract violation.
type BlockConvolver[F fft.Float] interface {
	// Process convolves block in place.
	Process(block []F)
	// ProcessTo convolves in and writes the result to out. out and in may alias.
	ProcessTo(out, in []F)
	// Reset clears the convolution history.
	Reset()
	// BlockSize returns the number of samples per call.
	BlockSize() int
}

// Mode specifies the output mode for one-shot convolution.
type Mode int

const (
	// ModeFull returns the full convolution result with length len(a)+len(b)-1.
	ModeFull Mode = iota

	// ModeSame returns output with the same length as the first input.
	ModeSame

	// ModeValid returns only the portion where signals fully overlap,
	// with length max(len(a), len(b)) - min(len(a), len(b)) + 1.
	ModeValid
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSame:
		return "same"
	case ModeValid:
		return "valid"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// OutputSize returns the length of the convolution of an n-sample signal with
// an m-sample kernel in the given mode. It returns 0 if either length is 0.
func OutputSize(mode Mode, n, m int) int {
	if n <= 0 || m <= 0 {
		return 0
	}
	switch mode {
	case ModeSame:
		return n
	case ModeValid:
		return max(n, m) - min(n, m) + 1
	default:
		return n + m - 1
	}
}

// NumOverlapPartitions returns how many blocks of blockSize samples one
// overlap-add result of a filterSize kernel spans: ceil((B+F-1)/B).
func NumOverlapPartitions(blockSize, filterSize int) int {
	if blockSize <= 0 || filterSize <= 0 {
		return 0
	}
	usable := blockSize + filterSize - 1
	return (usable + blockSize - 1) / blockSize
}

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
//
// This is an O(N*M) algorithm. It is the reference the FFT based convolvers
// are tested against.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	DirectTo(result, a, b)
	return result, nil
}

// DirectTo performs direct convolution, writing to a pre-allocated destination.
// dst must have length len(a) + len(b) - 1.
func DirectTo(dst, a, b []float64) {
	clear(dst)

	const simdThreshold = 4
	if len(b) >= simdThreshold {
		directToSIMD(dst, a, b)
	} else {
		directToScalar(dst, a, b)
	}
}

func directToScalar(dst, a, b []float64) {
	for i, x := range a {
		for j, h := range b {
			dst[i+j] += x * h
		}
	}
}

// directToSIMD vectorizes the inner loop: dst[i:i+m] += b * a[i].
func directToSIMD(dst, a, b []float64) {
	m := len(b)
	temp := make([]float64, m)

	for i, x := range a {
		vecmath.ScaleBlock(temp, b, x)
		vecmath.AddBlockInPlace(dst[i:i+m], temp)
	}
}

// Convolve performs linear convolution with automatic algorithm selection.
// Kernels of up to 64 samples use direct convolution, longer ones FFTConvolve.
func Convolve(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	if len(b) > len(a) {
		a, b = b, a
	}

	const directThreshold = 64
	if len(b) <= directThreshold {
		return Direct(a, b)
	}

	return FFTConvolve(a, b)
}

// FFTConvolve computes the full linear convolution of a and b with a single
// real transform of the next power of two >= len(a)+len(b)-1.
func FFTConvolve(a, b []float64, opts ...fft.Option) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	outLen := len(a) + len(b) - 1
	n := max(fft.NextPowerOf2(outLen), 2)

	plan, err := fft.NewRealPlan(fft.Log2(n), opts...)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	padded := make([]float64, n)
	specA := make([]complex128, plan.Bins())
	specB := make([]complex128, plan.Bins())

	copy(padded, a)
	plan.Forward(specA, padded)

	clear(padded)
	copy(padded, b)
	plan.Forward(specB, padded)

	scale := complex(1/float64(n), 0)
	for k := range specA {
		specA[k] *= specB[k] * scale
	}

	plan.Inverse(padded, specA)
	return padded[:outLen], nil
}

// ConvolveMode performs convolution with specified output mode.
func ConvolveMode(a, b []float64, mode Mode) ([]float64, error) {
	full, err := Convolve(a, b)
	if err != nil {
		return nil, err
	}

	return trimToMode(full, len(a), len(b), mode), nil
}

// trimToMode extracts the appropriate portion of a full convolution result.
func trimToMode(full []float64, lenA, lenB int, mode Mode) []float64 {
	switch mode {
	case ModeSame:
		start := (lenB - 1) / 2
		return full[start : start+lenA]
	case ModeValid:
		if lenA >= lenB {
			return full[lenB-1 : lenA]
		}
		return full[lenA-1 : lenB]
	default:
		return full
	}
}

// checkBlockSize validates a streaming block size: a power of two. A block
// of one sample runs on the two-point real transform.
func checkBlockSize(blockSize int) error {
	if !fft.IsPowerOf2(blockSize) {
		return fmt.Errorf("%w: %d is not a power of two", ErrInvalidBlockSize, blockSize)
	}
	return nil
}
