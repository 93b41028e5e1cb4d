package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-upols/internal/testutil"
)

func TestAWeighting(t *testing.T) {
	// Reference levels at the G notes of octaves 0 to 9.
	tests := []struct {
		freq float64
		want float64
	}{
		{24.5, -45.30166390},
		{49.0, -30.64262470},
		{98.0, -19.42442872},
		{196.0, -11.05317378},
		{392.0, -4.92218165},
		{783.99, -0.87787452},
		{1567.98, 0.96689509},
		{3135.96, 1.20425069},
		{6271.93, -0.09973374},
		{12543.85, -4.28495301},
	}

	var w AWeighting
	for _, tt := range tests {
		assert.InDelta(t, tt.want, w.Weight(tt.freq), 1e-4, "%.2f Hz", tt.freq)
	}
	assert.Zero(t, w.Weight(0))
	assert.Zero(t, FlatWeighting{}.Weight(1000))
}

func TestParseWeighting(t *testing.T) {
	for name, want := range map[string]Weighting{
		"":     FlatWeighting{},
		"flat": FlatWeighting{},
		"A":    AWeighting{},
	} {
		got, err := ParseWeighting(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseWeighting("c")
	assert.Error(t, err)
}

func TestGainToDB(t *testing.T) {
	assert.Zero(t, gainToDB(1))
	assert.InDelta(t, -20, gainToDB(0.1), 1e-2)
	assert.Equal(t, minDB, gainToDB(0))
	assert.Equal(t, minDB, gainToDB(1e-12))

	// Levels relative to the peak stay at or below 0 dB with either
	// implementation, so a 0 dB threshold never keeps a bin.
	for g := 1.0; g > 0.5; g -= 1.0 / 64 {
		assert.LessOrEqual(t, gainToDB(g), 0.0, "gain %v", g)
	}
	assert.Greater(t, gainToDB(2), 0.0)
}

func TestPruneKeepsEverythingAtMinusInf(t *testing.T) {
	ir := [][]float64{
		testutil.DecayingNoise[float64](1, 300, 30),
		testutil.DecayingNoise[float64](2, 300, 30),
	}
	filter, err := Partition64(ir, 64)
	require.NoError(t, err)

	sparse, err := Sparse(filter)
	require.NoError(t, err)

	assert.Equal(t, 2, sparse.NumChannels())
	assert.Equal(t, filter.NumPartitions(), sparse.NumPartitions())
	assert.Equal(t, 64, sparse.BlockSize())
	assert.Equal(t, 2*filter.NumPartitions()*filter.NumBins(), sparse.NNZ())
	assert.InDelta(t, 1.0, sparse.Density(), 1e-12)

	for ch := range 2 {
		m := sparse.Channel(ch)
		for p := range filter.NumPartitions() {
			for k, v := range filter.Partition(ch, p) {
				require.Equal(t, v, m.At(p, k))
			}
		}
	}
}

func TestPruneThreshold(t *testing.T) {
	// A single tap at the start of the second partition: partition 0 is
	// silent, partition 1 is flat at the peak level.
	ir := make([]float64, 64)
	ir[32] = 1
	filter, err := Partition64([][]float64{ir}, 32)
	require.NoError(t, err)
	require.Equal(t, 2, filter.NumPartitions())

	t.Run("drops silent partition", func(t *testing.T) {
		sparse, err := Prune(filter, PruneOptions{ThresholdDB: -60})
		require.NoError(t, err)
		m := sparse.Channel(0)
		cols, _ := m.Row(0)
		assert.Empty(t, cols)
		cols, _ = m.Row(1)
		assert.Len(t, cols, 33)
	})

	t.Run("keep low bins", func(t *testing.T) {
		sparse, err := Prune(filter, PruneOptions{ThresholdDB: 0, KeepLowBins: 4})
		require.NoError(t, err)
		m := sparse.Channel(0)
		for p := range 2 {
			cols, _ := m.Row(p)
			assert.Equal(t, []int{0, 1, 2, 3}, cols, "partition %d", p)
		}
	})
}

func TestPruneWeighting(t *testing.T) {
	filter, err := IdentityFilter[complex128](64, 1)
	require.NoError(t, err)

	const rate = 48000.0
	sparse, err := Prune(filter, PruneOptions{
		ThresholdDB: -10,
		Weighting:   AWeighting{},
		SampleRate:  rate,
	})
	require.NoError(t, err)

	m := sparse.Channel(0)
	for k := range filter.NumBins() {
		freq := float64(k) * rate / 128
		kept := m.At(0, k) != 0
		assert.Equal(t, AWeighting{}.Weight(freq) > -10, kept, "bin %d (%.0f Hz)", k, freq)
	}
	assert.Less(t, sparse.NNZ(), filter.NumBins())
	assert.NotZero(t, m.At(0, 0))
}

func TestPruneErrors(t *testing.T) {
	filter, err := IdentityFilter[complex128](8, 1)
	require.NoError(t, err)

	_, err = Prune(filter, PruneOptions{ThresholdDB: math.NaN()})
	assert.Error(t, err)
	_, err = Prune(filter, PruneOptions{KeepLowBins: -1})
	assert.Error(t, err)
	_, err = Prune[complex128](nil, DefaultPruneOptions())
	assert.ErrorIs(t, err, ErrEmptyImpulseResponse)
}
