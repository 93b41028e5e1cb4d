package conv

import (
	"fmt"

	"github.com/cwbudde/algo-upols/dsp/fft"
)

// FilterT is an impulse response split into uniform partitions and
// transformed to the frequency domain.
//
// The spectra are laid out as [channels][partitions][blockSize+1] in one
// slice and pre-scaled by 1/(2*blockSize), the only normalization applied
// on the convolution path. A FilterT is immutable after construction and
// may be shared by any number of engines.
type FilterT[C fft.Complex] struct {
	blockSize  int
	bins       int
	partitions int
	channels   int
	data       []C
}

// Filter is the complex128 specialization.
type Filter = FilterT[complex128]

// Filter32 is the complex64 specialization.
type Filter32 = FilterT[complex64]

// ChannelFilterT is the view of one channel of a FilterT, the unit an
// engine binds with SetFilter.
type ChannelFilterT[C fft.Complex] struct {
	blockSize  int
	bins       int
	partitions int
	data       []C
}

// Partition splits every channel of impulse into ceil(len/blockSize) chunks,
// zero-pads each chunk to 2*blockSize and stores its scaled spectrum.
// All channels must have the same non-zero length.
func Partition[F fft.Float, C fft.Complex](impulse [][]F, blockSize int, opts ...fft.Option) (*FilterT[C], error) {
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if len(impulse) == 0 || len(impulse[0]) == 0 {
		return nil, ErrEmptyImpulseResponse
	}

	length := len(impulse[0])
	for ch, samples := range impulse {
		if len(samples) != length {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrChannelLengthMismatch, ch, len(samples), length)
		}
	}

	plan, err := fft.NewRealPlanT[F, C](fft.Log2(2*blockSize), opts...)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	f := newFilter[C](blockSize, (length+blockSize-1)/blockSize, len(impulse))
	scale := C(complex(1/float64(2*blockSize), 0))
	padded := make([]F, 2*blockSize)

	for ch, samples := range impulse {
		for p := range f.partitions {
			clear(padded)
			copy(padded, samples[p*blockSize:min((p+1)*blockSize, length)])

			spectrum := f.Partition(ch, p)
			plan.Forward(spectrum, padded)
			for k := range spectrum {
				spectrum[k] *= scale
			}
		}
	}

	return f, nil
}

// Partition64 is Partition for float64 samples.
func Partition64(impulse [][]float64, blockSize int, opts ...fft.Option) (*Filter, error) {
	return Partition[float64, complex128](impulse, blockSize, opts...)
}

// Partition32 is Partition for float32 samples.
func Partition32(impulse [][]float32, blockSize int, opts ...fft.Option) (*Filter32, error) {
	return Partition[float32, complex64](impulse, blockSize, opts...)
}

// IdentityFilter returns the partitioned unit impulse: a single partition
// whose scaled spectrum is flat.
func IdentityFilter[C fft.Complex](blockSize, channels int) (*FilterT[C], error) {
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrEmptyImpulseResponse, channels)
	}

	f := newFilter[C](blockSize, 1, channels)
	flat := C(complex(1/float64(2*blockSize), 0))
	for i := range f.data {
		f.data[i] = flat
	}
	return f, nil
}

func newFilter[C fft.Complex](blockSize, partitions, channels int) *FilterT[C] {
	bins := blockSize + 1
	return &FilterT[C]{
		blockSize:  blockSize,
		bins:       bins,
		partitions: partitions,
		channels:   channels,
		data:       make([]C, channels*partitions*bins),
	}
}

// BlockSize returns the partition length in samples.
func (f *FilterT[C]) BlockSize() int { return f.blockSize }

// NumBins returns the number of bins per partition, blockSize+1.
func (f *FilterT[C]) NumBins() int { return f.bins }

// NumPartitions returns the number of partitions per channel.
func (f *FilterT[C]) NumPartitions() int { return f.partitions }

// NumChannels returns the number of channels.
func (f *FilterT[C]) NumChannels() int { return f.channels }

// Partition returns the spectrum of partition p of channel ch.
// The returned slice aliases the filter and must not be modified.
func (f *FilterT[C]) Partition(ch, p int) []C {
	off := (ch*f.partitions + p) * f.bins
	return f.data[off : off+f.bins : off+f.bins]
}

// Channel returns the view of channel ch. It panics if ch is out of range.
func (f *FilterT[C]) Channel(ch int) ChannelFilterT[C] {
	if ch < 0 || ch >= f.channels {
		panic(fmt.Sprintf("conv: channel %d out of range [0, %d)", ch, f.channels))
	}
	size := f.partitions * f.bins
	return ChannelFilterT[C]{
		blockSize:  f.blockSize,
		bins:       f.bins,
		partitions: f.partitions,
		data:       f.data[ch*size : (ch+1)*size],
	}
}

// BlockSize returns the partition length in samples.
func (c ChannelFilterT[C]) BlockSize() int { return c.blockSize }

// NumBins returns the number of bins per partition.
func (c ChannelFilterT[C]) NumBins() int { return c.bins }

// NumPartitions returns the number of partitions.
func (c ChannelFilterT[C]) NumPartitions() int { return c.partitions }

// Partition returns the spectrum of partition p.
func (c ChannelFilterT[C]) Partition(p int) []C {
	off := p * c.bins
	return c.data[off : off+c.bins : off+c.bins]
}
