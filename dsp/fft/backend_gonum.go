package fft

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-upols/internal/contract"
)

// gonumTransformer wraps gonum's complex FFT. gonum's Sequence is already
// unnormalized, matching the Transformer contract.
type gonumTransformer struct {
	fft *fourier.CmplxFFT
	n   int
}

func newGonumTransformer[C Complex](n int) (Transformer[C], error) {
	var zero C
	if _, ok := any(zero).(complex128); !ok {
		return nil, fmt.Errorf("%w: gonum requires complex128, got %T", ErrBackendUnsupported, zero)
	}
	t := &gonumTransformer{fft: fourier.NewCmplxFFT(n), n: n}
	return any(t).(Transformer[C]), nil
}

func (t *gonumTransformer) Len() int { return t.n }

func (t *gonumTransformer) Forward(buf []complex128) {
	contract.RequireLen(len(buf), t.n, "fft: transform buffer")
	t.fft.Coefficients(buf, buf)
}

func (t *gonumTransformer) Inverse(buf []complex128) {
	contract.RequireLen(len(buf), t.n, "fft: transform buffer")
	t.fft.Sequence(buf, buf)
}
