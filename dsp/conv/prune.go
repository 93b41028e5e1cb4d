package conv

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-upols/dsp/fft"
)

// minDB is the floor of the level scale used for pruning.
const minDB = -144.0

// PruneOptions controls which filter bins survive pruning.
type PruneOptions struct {
	// ThresholdDB is the level, relative to the loudest bin of the whole
	// filter, below which a bin is dropped. math.Inf(-1) keeps every bin.
	ThresholdDB float64

	// KeepLowBins bins starting at DC are kept in every partition
	// regardless of level.
	KeepLowBins int

	// Weighting is added to each bin's level. nil means FlatWeighting.
	Weighting Weighting

	// SampleRate maps bins to frequencies for the weighting curve.
	// Defaults to 44100.
	SampleRate float64
}

// DefaultPruneOptions keeps every bin.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{
		ThresholdDB: math.Inf(-1),
		Weighting:   FlatWeighting{},
		SampleRate:  44100,
	}
}

// SparseFilterT is a pruned FilterT: one CSR matrix per channel with one
// row per partition and one column per bin.
type SparseFilterT[C fft.Complex] struct {
	blockSize int
	channels  []*SparseMatrixT[C]
}

// SparseFilter is the complex128 specialization.
type SparseFilter = SparseFilterT[complex128]

// SparseFilter32 is the complex64 specialization.
type SparseFilter32 = SparseFilterT[complex64]

// Prune drops the bins of f whose weighted level falls at or below
// opts.ThresholdDB.
//
// Levels are measured relative to the largest magnitude over all channels,
// partitions and bins. Bin k of a partition sits at k*SampleRate/(2*B) Hz.
func Prune[C fft.Complex](f *FilterT[C], opts PruneOptions) (*SparseFilterT[C], error) {
	if f == nil {
		return nil, ErrEmptyImpulseResponse
	}
	if math.IsNaN(opts.ThresholdDB) {
		return nil, fmt.Errorf("conv: prune threshold is NaN")
	}
	if opts.KeepLowBins < 0 {
		return nil, fmt.Errorf("conv: negative KeepLowBins %d", opts.KeepLowBins)
	}
	if opts.Weighting == nil {
		opts.Weighting = FlatWeighting{}
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}

	peak := 0.0
	for _, v := range f.data {
		peak = max(peak, cmplx.Abs(complex128(v)))
	}
	factor := 1.0
	if peak > 0 {
		factor = 1 / peak
	}

	weights := make([]float64, f.bins)
	binHz := opts.SampleRate / float64(2*f.blockSize)
	for k := range weights {
		weights[k] = opts.Weighting.Weight(float64(k) * binHz)
	}

	keep := func(_, col int, v C) bool {
		if col < opts.KeepLowBins {
			return true
		}
		level := gainToDB(min(cmplx.Abs(complex128(v))*factor, 1)) + weights[col]
		return level > opts.ThresholdDB
	}

	sf := &SparseFilterT[C]{
		blockSize: f.blockSize,
		channels:  make([]*SparseMatrixT[C], f.channels),
	}
	rows := make([][]C, f.partitions)
	for ch := range f.channels {
		for p := range rows {
			rows[p] = f.Partition(ch, p)
		}
		m, err := BuildSparseT(rows, keep)
		if err != nil {
			return nil, err
		}
		sf.channels[ch] = m
	}

	return sf, nil
}

// Sparse converts f without dropping any bin. The result computes exactly
// what the dense filter does.
func Sparse[C fft.Complex](f *FilterT[C]) (*SparseFilterT[C], error) {
	return Prune(f, DefaultPruneOptions())
}

// BlockSize returns the partition length in samples.
func (s *SparseFilterT[C]) BlockSize() int { return s.blockSize }

// NumChannels returns the number of channels.
func (s *SparseFilterT[C]) NumChannels() int { return len(s.channels) }

// NumPartitions returns the number of partitions per channel.
func (s *SparseFilterT[C]) NumPartitions() int {
	if len(s.channels) == 0 {
		return 0
	}
	return s.channels[0].Rows()
}

// Channel returns the matrix of channel ch for Engine.SetSparseFilter.
func (s *SparseFilterT[C]) Channel(ch int) *SparseMatrixT[C] { return s.channels[ch] }

// NNZ returns the number of kept bins over all channels.
func (s *SparseFilterT[C]) NNZ() int {
	n := 0
	for _, m := range s.channels {
		n += m.NNZ()
	}
	return n
}

// Density returns the kept fraction of all bins, in [0, 1].
func (s *SparseFilterT[C]) Density() float64 {
	total := 0
	for _, m := range s.channels {
		total += m.Rows() * m.Cols()
	}
	if total == 0 {
		return 0
	}
	return float64(s.NNZ()) / float64(total)
}
