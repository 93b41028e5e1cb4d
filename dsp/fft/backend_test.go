package fft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-upols/internal/testutil"
)

func TestBackendsAgreeWithReference(t *testing.T) {
	for _, backend := range []Backend{BackendAlgoFFT, BackendGonum} {
		t.Run(backend.String(), func(t *testing.T) {
			for order := 2; order <= 11; order++ {
				n := 1 << order
				x := randomComplex(uint64(300+order), n)

				ref, err := NewTransformer[complex128](order, BackendReference)
				require.NoError(t, err)
				alt, err := NewTransformer[complex128](order, backend)
				require.NoError(t, err)
				require.Equal(t, n, alt.Len())

				want := append([]complex128(nil), x...)
				got := append([]complex128(nil), x...)
				ref.Forward(want)
				alt.Forward(got)
				testutil.RequireComplexNearlyEqual(t, got, want, 1e-9*float64(n))

				ref.Inverse(want)
				alt.Inverse(got)
				testutil.RequireComplexNearlyEqual(t, got, want, 1e-9*float64(n))
			}
		})
	}
}

func TestRealPlanWithBackend(t *testing.T) {
	x := testutil.Noise[float64](9, 1, 512)
	ref, err := NewRealPlan(9)
	require.NoError(t, err)
	want := make([]complex128, ref.Bins())
	ref.Forward(want, x)

	for _, backend := range []Backend{BackendAlgoFFT, BackendGonum} {
		p, err := NewRealPlan(9, WithBackend(backend))
		require.NoError(t, err)
		assert.Equal(t, backend, p.Backend())
		got := make([]complex128, p.Bins())
		p.Forward(got, x)
		testutil.RequireComplexNearlyEqual(t, got, want, 1e-9)
	}
}

func TestGonumRejectsComplex64(t *testing.T) {
	_, err := NewTransformer[complex64](8, BackendGonum)
	assert.ErrorIs(t, err, ErrBackendUnsupported)

	_, err = NewRealPlan32(8, WithBackend(BackendGonum))
	assert.ErrorIs(t, err, ErrBackendUnsupported)
}

func TestUnknownBackend(t *testing.T) {
	_, err := NewTransformer[complex128](4, Backend(42))
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
