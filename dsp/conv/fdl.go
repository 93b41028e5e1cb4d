package conv

import (
	"math"

	"github.com/cwbudde/algo-upols/dsp/fft"
)

// delayLine stores the spectra of the most recent input blocks.
//
// The engine writes the newest spectrum into slot, publishes it with commit,
// reads past spectra by age (0 is the newest) and finally calls advance.
type delayLine[C fft.Complex] interface {
	slot() []C
	commit()
	row(age int) []C
	advance()
	reset()
	len() int
}

func newDelayLine[C fft.Complex](rows, bins int, compressed bool) delayLine[C] {
	if compressed {
		return newCompressedFDL[C](rows, bins)
	}
	return newDenseFDL[C](rows, bins)
}

// denseFDL is a [rows][bins] arena indexed modulo rows.
type denseFDL[C fft.Complex] struct {
	rows  int
	bins  int
	write int
	data  []C
}

func newDenseFDL[C fft.Complex](rows, bins int) *denseFDL[C] {
	return &denseFDL[C]{rows: rows, bins: bins, data: make([]C, rows*bins)}
}

func (d *denseFDL[C]) at(idx int) []C {
	off := idx * d.bins
	return d.data[off : off+d.bins : off+d.bins]
}

func (d *denseFDL[C]) slot() []C { return d.at(d.write) }

func (d *denseFDL[C]) commit() {}

func (d *denseFDL[C]) row(age int) []C {
	return d.at((d.write - age + d.rows) % d.rows)
}

func (d *denseFDL[C]) advance() { d.write = (d.write + 1) % d.rows }

func (d *denseFDL[C]) reset() {
	clear(d.data)
	d.write = 0
}

func (d *denseFDL[C]) len() int { return d.rows }

// compressedFDL keeps every row as int16 real/imaginary pairs with one
// float scale per row (block floating point), a quarter of the memory of a
// complex128 row. The newest spectrum is staged at full precision and
// quantized on commit; row decodes into a shared buffer, so only one row is
// valid at a time.
type compressedFDL[C fft.Complex] struct {
	rows  int
	bins  int
	write int
	re    []int16
	im    []int16
	scale []float64
	in    []C
	out   []C
}

const quantMax = math.MaxInt16

func newCompressedFDL[C fft.Complex](rows, bins int) *compressedFDL[C] {
	return &compressedFDL[C]{
		rows:  rows,
		bins:  bins,
		re:    make([]int16, rows*bins),
		im:    make([]int16, rows*bins),
		scale: make([]float64, rows),
		in:    make([]C, bins),
		out:   make([]C, bins),
	}
}

func (d *compressedFDL[C]) slot() []C { return d.in }

func (d *compressedFDL[C]) commit() {
	peak := 0.0
	for _, v := range d.in {
		c := complex128(v)
		peak = max(peak, math.Abs(real(c)), math.Abs(imag(c)))
	}

	off := d.write * d.bins
	re := d.re[off : off+d.bins]
	im := d.im[off : off+d.bins]
	d.scale[d.write] = peak

	if peak == 0 {
		clear(re)
		clear(im)
		return
	}

	q := quantMax / peak
	for k, v := range d.in {
		c := complex128(v)
		re[k] = int16(math.Round(real(c) * q))
		im[k] = int16(math.Round(imag(c) * q))
	}
}

func (d *compressedFDL[C]) row(age int) []C {
	idx := (d.write - age + d.rows) % d.rows
	off := idx * d.bins
	re := d.re[off : off+d.bins]
	im := d.im[off : off+d.bins]
	s := d.scale[idx] / quantMax

	for k := range d.out {
		d.out[k] = C(complex(float64(re[k])*s, float64(im[k])*s))
	}
	return d.out
}

func (d *compressedFDL[C]) advance() { d.write = (d.write + 1) % d.rows }

func (d *compressedFDL[C]) reset() {
	clear(d.re)
	clear(d.im)
	clear(d.scale)
	clear(d.in)
	d.write = 0
}

func (d *compressedFDL[C]) len() int { return d.rows }
