package fft

import (
	"errors"
	"fmt"
	"strings"

	algofft "github.com/cwbudde/algo-fft"
)

// Float is the set of supported real sample types.
type Float = algofft.Float

// Complex is the set of supported complex bin types.
type Complex = algofft.Complex

// MaxOrder is the largest transform order accepted by the constructors.
const MaxOrder = 24

// Errors returned by plan constructors.
var (
	ErrInvalidOrder       = errors.New("fft: invalid order")
	ErrBackendUnsupported = errors.New("fft: backend does not support this precision")
	ErrUnknownBackend     = errors.New("fft: unknown backend")
)

// Direction selects the sign of the twiddle phase.
type Direction int

const (
	// Forward uses exp(-2πik/N).
	Forward Direction = iota
	// Inverse uses exp(+2πik/N).
	Inverse
)

// Transformer is an unnormalized in-place complex transform of fixed size.
type Transformer[C Complex] interface {
	// Len returns the transform size.
	Len() int
	// Forward transforms buf in place. len(buf) must equal Len().
	Forward(buf []C)
	// Inverse transforms buf in place without scaling.
	Inverse(buf []C)
}

// Backend identifies a Transformer implementation.
type Backend int

const (
	// BackendReference is the portable radix-2 plan of this package.
	BackendReference Backend = iota
	// BackendAlgoFFT delegates to github.com/cwbudde/algo-fft.
	BackendAlgoFFT
	// BackendGonum delegates to gonum's dsp/fourier (complex128 only).
	BackendGonum
)

// String returns the backend name as accepted by ParseBackend.
func (b Backend) String() string {
	switch b {
	case BackendReference:
		return "reference"
	case BackendAlgoFFT:
		return "algofft"
	case BackendGonum:
		return "gonum"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend converts a backend name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "reference", "ref":
		return BackendReference, nil
	case "algofft", "algo-fft":
		return BackendAlgoFFT, nil
	case "gonum":
		return BackendGonum, nil
	default:
		return BackendReference, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// NewTransformer returns a complex transform of size 1<<order using backend.
func NewTransformer[C Complex](order int, backend Backend) (Transformer[C], error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}

	return newTransformer[C](order, backend)
}

func newTransformer[C Complex](order int, backend Backend) (Transformer[C], error) {
	// Size-1 transforms are the identity; no backend is needed.
	if order == 0 {
		return newPlanT[C](0), nil
	}

	switch backend {
	case BackendReference:
		return newPlanT[C](order), nil
	case BackendAlgoFFT:
		return newAlgoFFTTransformer[C](1 << order)
	case BackendGonum:
		return newGonumTransformer[C](1 << order)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownBackend, backend)
	}
}

func checkOrder(order int) error {
	if order < 1 || order > MaxOrder {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidOrder, order, MaxOrder)
	}
	return nil
}

// Option configures a RealPlanT.
type Option func(*config)

type config struct {
	backend Backend
}

// WithBackend selects the complex transform used inside a RealPlanT.
func WithBackend(b Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

func applyOptions(opts []Option) config {
	cfg := config{backend: BackendReference}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Log2 returns log2(n) for a power of two n, or -1 otherwise.
func Log2(n int) int {
	if !IsPowerOf2(n) {
		return -1
	}
	order := 0
	for n > 1 {
		n >>= 1
		order++
	}
	return order
}

// IsPowerOf2 reports whether n is a positive power of two.
func IsPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOf2 returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func toComplex[C Complex](re, im float64) C {
	return C(complex(re, im))
}
