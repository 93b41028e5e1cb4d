package buffer

import "fmt"

// Float is the set of sample types a BlockFIFO carries.
type Float interface {
	~float32 | ~float64
}

// BlockProcessor consumes one planar block per channel and writes the
// result to out. in and out never alias.
type BlockProcessor[F Float] interface {
	ProcessBlocks(out, in [][]F)
}

// BlockFIFO buffers interleaved frames into planar blocks.
type BlockFIFO[F Float] struct {
	channels    int
	block       int
	in, out     [][]F
	fill        int
	interleave2 func(dst, a, b []F)
}

// Option configures a BlockFIFO.
type Option[F Float] func(*BlockFIFO[F])

// WithInterleave2 sets the kernel that writes stereo output frames,
// dst[2i] = a[i] and dst[2i+1] = b[i]. It is used only with two channels.
func WithInterleave2[F Float](fn func(dst, a, b []F)) Option[F] {
	return func(f *BlockFIFO[F]) {
		f.interleave2 = fn
	}
}

// NewBlockFIFO returns a FIFO for channels interleaved channels and blocks
// of block frames.
func NewBlockFIFO[F Float](channels, block int, opts ...Option[F]) (*BlockFIFO[F], error) {
	if channels < 1 || block < 1 {
		return nil, fmt.Errorf("buffer: invalid FIFO shape %d channels x %d frames", channels, block)
	}
	f := &BlockFIFO[F]{
		channels: channels,
		block:    block,
		in:       make([][]F, channels),
		out:      make([][]F, channels),
	}
	for ch := range channels {
		f.in[ch] = make([]F, block)
		f.out[ch] = make([]F, block)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Channels returns the interleaved channel count.
func (f *BlockFIFO[F]) Channels() int { return f.channels }

// BlockSize returns the block length in frames.
func (f *BlockFIFO[F]) BlockSize() int { return f.block }

// Pending returns the number of frames collected toward the next block.
func (f *BlockFIFO[F]) Pending() int { return f.fill }

// Exchange pushes the interleaved frames of src and writes the same number
// of delayed frames to dst, calling p once for every block that fills up.
// len(src) must be a multiple of Channels and equal len(dst); dst may alias
// src.
func (f *BlockFIFO[F]) Exchange(dst, src []F, p BlockProcessor[F]) {
	nch := f.channels
	frames := len(src) / nch
	for pos := 0; pos < frames; {
		n := min(frames-pos, f.block-f.fill)
		for i := range n {
			frame := (pos + i) * nch
			for ch := range nch {
				f.in[ch][f.fill+i] = src[frame+ch]
			}
		}
		f.emit(dst[pos*nch:(pos+n)*nch], f.fill, n)
		f.fill += n
		pos += n

		if f.fill == f.block {
			p.ProcessBlocks(f.out, f.in)
			f.fill = 0
		}
	}
}

// emit writes n queued output frames starting at frame off to dst.
func (f *BlockFIFO[F]) emit(dst []F, off, n int) {
	if f.channels == 2 && f.interleave2 != nil {
		f.interleave2(dst, f.out[0][off:off+n], f.out[1][off:off+n])
		return
	}
	for i := range n {
		for ch := range f.channels {
			dst[i*f.channels+ch] = f.out[ch][off+i]
		}
	}
}

// Reset drops pending input and the queued output block.
func (f *BlockFIFO[F]) Reset() {
	for ch := range f.in {
		clear(f.in[ch])
		clear(f.out[ch])
	}
	f.fill = 0
}
