package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gainProcessor scales every block and counts calls.
type gainProcessor struct {
	gain  float64
	calls int
}

func (g *gainProcessor) ProcessBlocks(out, in [][]float64) {
	g.calls++
	for ch := range in {
		for i, v := range in[ch] {
			out[ch][i] = g.gain * v
		}
	}
}

func ramp(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i + 1)
	}
	return x
}

func TestNewBlockFIFOValidates(t *testing.T) {
	_, err := NewBlockFIFO[float64](0, 4)
	require.Error(t, err)
	_, err = NewBlockFIFO[float64](2, 0)
	require.Error(t, err)

	f, err := NewBlockFIFO[float32](2, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Channels())
	assert.Equal(t, 8, f.BlockSize())
	assert.Zero(t, f.Pending())
}

func TestExchangeDelaysByOneBlock(t *testing.T) {
	f, err := NewBlockFIFO[float64](2, 4)
	require.NoError(t, err)
	p := &gainProcessor{gain: 2}

	src := ramp(2 * 12)
	dst := make([]float64, len(src))
	f.Exchange(dst, src, p)

	assert.Equal(t, 3, p.calls)
	assert.Equal(t, make([]float64, 8), dst[:8])
	for i := 8; i < len(src); i++ {
		assert.Equal(t, 2*src[i-8], dst[i], "sample %d", i)
	}
}

func TestExchangeCadenceIndependent(t *testing.T) {
	src := ramp(3 * 50)

	whole, err := NewBlockFIFO[float64](3, 8)
	require.NoError(t, err)
	want := make([]float64, len(src))
	whole.Exchange(want, src, &gainProcessor{gain: -1})

	for _, step := range []int{1, 3, 7, 8, 13} {
		f, err := NewBlockFIFO[float64](3, 8)
		require.NoError(t, err)
		p := &gainProcessor{gain: -1}

		got := make([]float64, len(src))
		for pos := 0; pos < 50; pos += step {
			end := min(pos+step, 50)
			f.Exchange(got[3*pos:3*end], src[3*pos:3*end], p)
		}
		assert.Equal(t, want, got, "step %d", step)
		assert.Equal(t, 50%8, f.Pending())
	}
}

func TestExchangeInPlaceAndReset(t *testing.T) {
	f, err := NewBlockFIFO[float64](1, 4)
	require.NoError(t, err)
	p := &gainProcessor{gain: 1}

	buf := ramp(6)
	f.Exchange(buf, buf, p)
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 2}, buf)
	assert.Equal(t, 2, f.Pending())

	f.Reset()
	assert.Zero(t, f.Pending())
	buf = ramp(4)
	f.Exchange(buf, buf, p)
	assert.Equal(t, []float64{0, 0, 0, 0}, buf)
}

func TestExchangeStereoKernel(t *testing.T) {
	src := ramp(2 * 21)

	plain, err := NewBlockFIFO[float64](2, 4)
	require.NoError(t, err)
	want := make([]float64, len(src))
	plain.Exchange(want, src, &gainProcessor{gain: 3})

	calls := 0
	kernel := func(dst, a, b []float64) {
		calls++
		for i := range a {
			dst[2*i] = a[i]
			dst[2*i+1] = b[i]
		}
	}
	f, err := NewBlockFIFO(2, 4, WithInterleave2(kernel))
	require.NoError(t, err)
	p := &gainProcessor{gain: 3}

	got := append([]float64(nil), src...)
	for pos := 0; pos < 21; pos += 5 {
		end := min(pos+5, 21)
		f.Exchange(got[2*pos:2*end], got[2*pos:2*end], p)
	}
	assert.Equal(t, want, got)
	assert.Positive(t, calls)
}
