package fft

import (
	"math/cmplx"

	"github.com/cwbudde/algo-upols/internal/contract"
)

// PlanT is a complex radix-2 decimation-in-time transform of size 1<<order.
//
// A plan is immutable after construction and holds no per-call state, so one
// plan may serve any number of goroutines.
type PlanT[C Complex] struct {
	order   int
	size    int
	forward []C // exp(-2πik/size), k < size/2
	inverse []C // conjugate of forward
	bitrev  []int
}

// Plan is the complex128 specialization.
type Plan = PlanT[complex128]

// Plan32 is the complex64 specialization.
type Plan32 = PlanT[complex64]

// NewPlanT creates a plan for transforms of size 1<<order.
func NewPlanT[C Complex](order int) (*PlanT[C], error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}
	return newPlanT[C](order), nil
}

// NewPlan creates a complex128 plan.
func NewPlan(order int) (*Plan, error) {
	return NewPlanT[complex128](order)
}

// NewPlan32 creates a complex64 plan.
func NewPlan32(order int) (*Plan32, error) {
	return NewPlanT[complex64](order)
}

// newPlanT also accepts order 0, the identity transform used inside
// RealPlanT for N = 2.
func newPlanT[C Complex](order int) *PlanT[C] {
	size := 1 << order
	tw := twiddles(size)

	p := &PlanT[C]{
		order:   order,
		size:    size,
		forward: make([]C, len(tw)),
		inverse: make([]C, len(tw)),
		bitrev:  bitReversal(order),
	}
	for k, w := range tw {
		p.forward[k] = C(w)
		p.inverse[k] = C(cmplx.Conj(w))
	}
	return p
}

// Order returns log2 of the transform size.
func (p *PlanT[C]) Order() int { return p.order }

// Len returns the transform size.
func (p *PlanT[C]) Len() int { return p.size }

// Forward transforms buf in place with exp(-2πik/N) twiddles.
func (p *PlanT[C]) Forward(buf []C) { p.Transform(buf, Forward) }

// Inverse transforms buf in place with exp(+2πik/N) twiddles.
// The result is not scaled by 1/N.
func (p *PlanT[C]) Inverse(buf []C) { p.Transform(buf, Inverse) }

// Transform runs the bit-reversal permutation followed by order butterfly
// stages on buf. len(buf) must equal Len().
func (p *PlanT[C]) Transform(buf []C, dir Direction) {
	contract.RequireLen(len(buf), p.size, "fft: transform buffer")

	for i, j := range p.bitrev {
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	tw := p.forward
	if dir == Inverse {
		tw = p.inverse
	}

	for s := range p.order {
		half := 1 << s
		span := half << 1
		stride := p.size >> (s + 1)

		for start := 0; start < p.size; start += span {
			lo := buf[start : start+half]
			hi := buf[start+half : start+span]
			for pair := range lo {
				t := tw[pair*stride] * hi[pair]
				a := lo[pair]
				lo[pair] = a + t
				hi[pair] = a - t
			}
		}
	}
}
