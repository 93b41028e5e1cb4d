package conv

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/internal/contract"
	"github.com/cwbudde/algo-upols/internal/lane"
)

// Scheme selects how the engine assembles its transform window.
type Scheme int

const (
	// SchemeOverlapSave slides a 2B window over the input and keeps the
	// last B samples of each inverse transform (UPOLS).
	SchemeOverlapSave Scheme = iota

	// SchemeOverlapAdd zero-pads each block to 2B and adds the tail of the
	// previous inverse transform to the head of the current one (UPOLA).
	SchemeOverlapAdd
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case SchemeOverlapSave:
		return "overlap-save"
	case SchemeOverlapAdd:
		return "overlap-add"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// ParseScheme accepts "overlap-save"/"ols"/"save" and "overlap-add"/"ola"/"add".
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "overlap-save", "ols", "save", "upols":
		return SchemeOverlapSave, nil
	case "overlap-add", "ola", "add", "upola":
		return SchemeOverlapAdd, nil
	default:
		return 0, fmt.Errorf("conv: unknown scheme %q", name)
	}
}

// EngineOption configures an EngineT.
type EngineOption func(*engineConfig)

type engineConfig struct {
	scheme     Scheme
	compressed bool
	backend    fft.Backend
}

// WithScheme selects overlap-save (default) or overlap-add.
func WithScheme(s Scheme) EngineOption {
	return func(c *engineConfig) {
		c.scheme = s
	}
}

// WithCompressedFDL stores the frequency-domain delay line as 16-bit
// block floating point instead of full-precision complex values.
func WithCompressedFDL() EngineOption {
	return func(c *engineConfig) {
		c.compressed = true
	}
}

// WithFFTBackend selects the complex transform behind the engine's real FFT.
func WithFFTBackend(b fft.Backend) EngineOption {
	return func(c *engineConfig) {
		c.backend = b
	}
}

// EngineT is a uniformly partitioned convolution engine.
//
// Every call consumes one block of B samples, transforms a 2B window into
// the frequency-domain delay line and multiply-accumulates each past
// spectrum with the matching filter partition. The output for block n is
// the convolution of the input with the filter over the samples of block n;
// the engine adds no algorithmic delay.
//
// An engine is driven by one goroutine at a time.
type EngineT[F fft.Float, C fft.Complex] struct {
	blockSize int
	bins      int
	cfg       engineConfig

	plan *fft.RealPlanT[F, C]
	ops  lane.Ops[F, C]

	window []F // 2B transform input
	result []F // 2B inverse transform output
	carry  []F // B overlap-add tail
	acc    []C
	tmp    []C

	fdl    delayLine[C]
	dense  ChannelFilterT[C]
	sparse *SparseMatrixT[C]
	ready  bool
}

// Engine is the float64 specialization.
type Engine = EngineT[float64, complex128]

// Engine32 is the float32 specialization.
type Engine32 = EngineT[float32, complex64]

// NewEngineT prepares transform and buffers for blockSize samples per call.
// The engine is not ready until a filter is bound with SetFilter or
// SetSparseFilter.
func NewEngineT[F fft.Float, C fft.Complex](blockSize int, opts ...EngineOption) (*EngineT[F, C], error) {
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}

	var cfg engineConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.scheme != SchemeOverlapSave && cfg.scheme != SchemeOverlapAdd {
		return nil, fmt.Errorf("conv: unknown scheme %v", cfg.scheme)
	}

	plan, err := fft.NewRealPlanT[F, C](fft.Log2(2*blockSize), fft.WithBackend(cfg.backend))
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	bins := blockSize + 1
	e := &EngineT[F, C]{
		blockSize: blockSize,
		bins:      bins,
		cfg:       cfg,
		plan:      plan,
		ops:       lane.For[F, C](),
		window:    make([]F, 2*blockSize),
		result:    make([]F, 2*blockSize),
		acc:       make([]C, bins),
		tmp:       make([]C, bins),
	}
	if cfg.scheme == SchemeOverlapAdd {
		e.carry = make([]F, blockSize)
	}

	return e, nil
}

// NewEngine creates a float64 engine.
func NewEngine(blockSize int, opts ...EngineOption) (*Engine, error) {
	return NewEngineT[float64, complex128](blockSize, opts...)
}

// NewEngine32 creates a float32 engine.
func NewEngine32(blockSize int, opts ...EngineOption) (*Engine32, error) {
	return NewEngineT[float32, complex64](blockSize, opts...)
}

// SetFilter binds a dense channel filter. The delay line keeps its history
// when the partition count is unchanged and is reallocated otherwise.
func (e *EngineT[F, C]) SetFilter(f ChannelFilterT[C]) error {
	if f.BlockSize() != e.blockSize || f.NumBins() != e.bins {
		return fmt.Errorf("%w: filter block size %d, engine %d",
			ErrFilterMismatch, f.BlockSize(), e.blockSize)
	}
	if f.NumPartitions() < 1 {
		return fmt.Errorf("%w: filter has no partitions", ErrFilterMismatch)
	}

	e.bindRows(f.NumPartitions())
	e.dense = f
	e.sparse = nil
	e.ready = true
	return nil
}

// SetSparseFilter binds a pruned channel filter: one row per partition, one
// column per bin.
func (e *EngineT[F, C]) SetSparseFilter(m *SparseMatrixT[C]) error {
	if m == nil || m.Rows() < 1 {
		return fmt.Errorf("%w: sparse filter has no partitions", ErrFilterMismatch)
	}
	if m.Cols() != e.bins {
		return fmt.Errorf("%w: sparse filter has %d bins, engine %d",
			ErrFilterMismatch, m.Cols(), e.bins)
	}

	e.bindRows(m.Rows())
	e.dense = ChannelFilterT[C]{}
	e.sparse = m
	e.ready = true
	return nil
}

func (e *EngineT[F, C]) bindRows(rows int) {
	if e.fdl != nil && e.fdl.len() == rows {
		return
	}
	e.fdl = newDelayLine[C](rows, e.bins, e.cfg.compressed)
}

// Process convolves block in place.
func (e *EngineT[F, C]) Process(block []F) {
	e.ProcessTo(block, block)
}

// ProcessTo convolves one block of in and writes it to out.
// Both must hold exactly BlockSize samples; they may alias.
func (e *EngineT[F, C]) ProcessTo(out, in []F) {
	contract.Require(e.ready, "conv: Process before SetFilter")
	contract.RequireLen(len(in), e.blockSize, "conv: input block")
	contract.RequireLen(len(out), e.blockSize, "conv: output block")

	b := e.blockSize
	if e.cfg.scheme == SchemeOverlapAdd {
		copy(e.window[:b], in)
		clear(e.window[b:])
	} else {
		copy(e.window[:b], e.window[b:])
		copy(e.window[b:], in)
	}

	e.plan.Forward(e.fdl.slot(), e.window)
	e.fdl.commit()

	clear(e.acc)
	if e.sparse != nil {
		for p := range e.sparse.Rows() {
			e.sparse.MultiplyAccumulate(e.acc, e.fdl.row(p), p)
		}
	} else {
		for p := range e.dense.NumPartitions() {
			e.ops.MulAcc(e.acc, e.fdl.row(p), e.dense.Partition(p), e.tmp)
		}
	}
	e.fdl.advance()

	e.plan.Inverse(e.result, e.acc)

	if e.cfg.scheme == SchemeOverlapAdd {
		for i := range out {
			out[i] = e.result[i] + e.carry[i]
		}
		copy(e.carry, e.result[b:])
		return
	}
	copy(out, e.result[b:])
}

// Reset clears the window, the overlap tail and the delay line. The bound
// filter stays in place.
func (e *EngineT[F, C]) Reset() {
	clear(e.window)
	clear(e.result)
	clear(e.carry)
	if e.fdl != nil {
		e.fdl.reset()
	}
}

// BlockSize returns the number of samples per call.
func (e *EngineT[F, C]) BlockSize() int { return e.blockSize }

// NumPartitions returns the partition count of the bound filter, 0 before
// a filter is bound.
func (e *EngineT[F, C]) NumPartitions() int {
	if !e.ready {
		return 0
	}
	return e.fdl.len()
}

// Latency returns the input-to-output delay in samples a host sees when it
// collects a full block before calling Process, which is one block.
func (e *EngineT[F, C]) Latency() int { return e.blockSize }

// Ready reports whether a filter is bound.
func (e *EngineT[F, C]) Ready() bool { return e.ready }

// Scheme returns the windowing scheme.
func (e *EngineT[F, C]) Scheme() Scheme { return e.cfg.scheme }

// Backend returns the FFT backend.
func (e *EngineT[F, C]) Backend() fft.Backend { return e.plan.Backend() }

// Kernels returns the name of the lane kernel set in use.
func (e *EngineT[F, C]) Kernels() string { return e.ops.Name }
