package fft

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-upols/internal/contract"
)

// algofftTransformer adapts an algo-fft plan to the unnormalized
// Transformer contract.
type algofftTransformer[C Complex] struct {
	plan *algofft.Plan[C]
	n    int
	gain C // undoes the 1/N applied by algo-fft's inverse
}

func newAlgoFFTTransformer[C Complex](n int) (Transformer[C], error) {
	plan, err := algofft.NewPlanT[C](n)
	if err != nil {
		return nil, fmt.Errorf("fft: algo-fft plan (n=%d): %w", n, err)
	}
	return &algofftTransformer[C]{
		plan: plan,
		n:    n,
		gain: toComplex[C](float64(n), 0),
	}, nil
}

func (t *algofftTransformer[C]) Len() int { return t.n }

func (t *algofftTransformer[C]) Forward(buf []C) {
	contract.RequireLen(len(buf), t.n, "fft: transform buffer")
	if err := t.plan.Forward(buf, buf); err != nil {
		contract.Require(false, "fft: algo-fft forward: "+err.Error())
	}
}

func (t *algofftTransformer[C]) Inverse(buf []C) {
	contract.RequireLen(len(buf), t.n, "fft: transform buffer")
	if err := t.plan.Inverse(buf, buf); err != nil {
		contract.Require(false, "fft: algo-fft inverse: "+err.Error())
	}
	for i := range buf {
		buf[i] *= t.gain
	}
}
