package lane

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBins(seed uint64, n int) []complex128 {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(rng.Float64()*2-1, rng.Float64()*2-1)
	}
	return out
}

func TestMulAccMatchesGeneric(t *testing.T) {
	ops := For[float64, complex128]()
	for _, n := range []int{0, 1, 3, 8, 33, 257} {
		a := randomBins(1, n)
		b := randomBins(2, n)
		acc := randomBins(3, n)
		want := append([]complex128(nil), acc...)
		mulAccGeneric(want, a, b, nil)

		tmp := make([]complex128, n)
		ops.MulAcc(acc, a, b, tmp)
		for i := range acc {
			assert.InDelta(t, real(want[i]), real(acc[i]), 1e-12)
			assert.InDelta(t, imag(want[i]), imag(acc[i]), 1e-12)
		}
	}
}

func TestMulComplex64(t *testing.T) {
	ops := For[float32, complex64]()
	a := []complex64{1 + 1i, 2}
	b := []complex64{1 - 1i, 3i}
	dst := make([]complex64, 2)
	ops.Mul(dst, a, b)
	assert.Equal(t, []complex64{2, 6i}, dst)

	acc := []complex64{1, 1}
	ops.MulAcc(acc, a, b, make([]complex64, 2))
	assert.Equal(t, []complex64{3, 1 + 6i}, acc)
}

func TestScale(t *testing.T) {
	ops := For[float64, complex128]()
	x := []float64{1, 2, 3, 4, 5}
	ops.Scale(x, x, 0.5)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5}, x)

	dst := make([]float64, 3)
	ops.Scale(dst, []float64{2, 4, 6}, 2)
	assert.Equal(t, []float64{4, 8, 12}, dst)

	ops32 := For[float32, complex64]()
	y := []float32{2, 4}
	ops32.Scale(y, y, 0.25)
	assert.Equal(t, []float32{0.5, 1}, y)
}

func TestInterleave2(t *testing.T) {
	ops := For[float64, complex128]()
	dst := make([]float64, 6)
	ops.Interleave2(dst, []float64{1, 2, 3}, []float64{-1, -2, -3})
	assert.Equal(t, []float64{1, -1, 2, -2, 3, -3}, dst)
}

func TestDescribe(t *testing.T) {
	d := Describe()
	require.NotEmpty(t, d)
	assert.NotEmpty(t, For[float64, complex128]().Name)
}
