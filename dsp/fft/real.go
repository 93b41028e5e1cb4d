package fft

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-upols/internal/contract"
)

// RealPlanT transforms N = 1<<order real samples into N/2+1 complex bins.
//
// The N samples are packed as N/2 complex values (even samples in the real
// part, odd samples in the imaginary part), transformed with one N/2-point
// complex transform and then separated into the spectrum of the real signal.
//
// A RealPlanT owns a half-size workspace and must not be shared between
// goroutines.
type RealPlanT[F Float, C Complex] struct {
	order   int
	n       int
	half    int
	backend Backend
	inner   Transformer[C]
	split   []complex128 // exp(-2πik/N), k < N/2
	work    []C
}

// RealPlan is the float64 specialization.
type RealPlan = RealPlanT[float64, complex128]

// RealPlan32 is the float32 specialization.
type RealPlan32 = RealPlanT[float32, complex64]

// NewRealPlanT creates a real transform of N = 1<<order samples.
func NewRealPlanT[F Float, C Complex](order int, opts ...Option) (*RealPlanT[F, C], error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)

	inner, err := newTransformer[C](order-1, cfg.backend)
	if err != nil {
		return nil, err
	}

	n := 1 << order
	half := n / 2
	split := make([]complex128, half)
	for k := range split {
		sin, cos := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		split[k] = complex(cos, sin)
	}

	return &RealPlanT[F, C]{
		order:   order,
		n:       n,
		half:    half,
		backend: cfg.backend,
		inner:   inner,
		split:   split,
		work:    make([]C, half),
	}, nil
}

// NewRealPlan creates a float64 real transform.
func NewRealPlan(order int, opts ...Option) (*RealPlan, error) {
	return NewRealPlanT[float64, complex128](order, opts...)
}

// NewRealPlan32 creates a float32 real transform.
func NewRealPlan32(order int, opts ...Option) (*RealPlan32, error) {
	return NewRealPlanT[float32, complex64](order, opts...)
}

// Order returns log2 of the number of real samples.
func (p *RealPlanT[F, C]) Order() int { return p.order }

// Len returns the number of real samples N.
func (p *RealPlanT[F, C]) Len() int { return p.n }

// Bins returns the number of spectrum bins, N/2+1.
func (p *RealPlanT[F, C]) Bins() int { return p.half + 1 }

// Backend returns the backend of the inner complex transform.
func (p *RealPlanT[F, C]) Backend() Backend { return p.backend }

// Forward computes the N/2+1 bin spectrum of src into dst.
// src is not modified.
func (p *RealPlanT[F, C]) Forward(dst []C, src []F) {
	contract.RequireLen(len(src), p.n, "fft: rfft input")
	contract.RequireLen(len(dst), p.half+1, "fft: rfft output")

	z := p.work
	for k := range z {
		z[k] = toComplex[C](float64(src[2*k]), float64(src[2*k+1]))
	}
	p.inner.Forward(z)

	z0 := complex128(z[0])
	dst[0] = toComplex[C](real(z0)+imag(z0), 0)
	dst[p.half] = toComplex[C](real(z0)-imag(z0), 0)

	for k := 1; k < p.half; k++ {
		zk := complex128(z[k])
		zc := cmplx.Conj(complex128(z[p.half-k]))
		even := (zk + zc) * 0.5
		odd := (zk - zc) * complex(0, -0.5)
		dst[k] = C(even + p.split[k]*odd)
	}
}

// Inverse reconstructs N real samples from an N/2+1 bin spectrum.
// The result is scaled by N: Inverse(Forward(x)) == N*x. src is not modified.
func (p *RealPlanT[F, C]) Inverse(dst []F, src []C) {
	contract.RequireLen(len(src), p.half+1, "fft: irfft input")
	contract.RequireLen(len(dst), p.n, "fft: irfft output")

	z := p.work
	for k := range z {
		rk := complex128(src[k])
		rc := cmplx.Conj(complex128(src[p.half-k]))
		even := rk + rc
		odd := (rk - rc) * cmplx.Conj(p.split[k])
		z[k] = C(even + complex(0, 1)*odd)
	}
	p.inner.Inverse(z)

	for k, v := range z {
		c := complex128(v)
		dst[2*k] = F(real(c))
		dst[2*k+1] = F(imag(c))
	}
}
