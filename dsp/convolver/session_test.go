package convolver

import (
	"bytes"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cwbudde/algo-upols/dsp/conv"
	"github.com/cwbudde/algo-upols/dsp/core"
	"github.com/cwbudde/algo-upols/dsp/ir"
	"github.com/cwbudde/algo-upols/internal/contract"
	"github.com/cwbudde/algo-upols/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlock = 64

func quietLogger() core.ProcessorOption {
	return core.WithLogger(slog.New(slog.DiscardHandler))
}

func newTestSession(t testing.TB, opts ...core.ProcessorOption) *Session {
	t.Helper()
	base := []core.ProcessorOption{
		core.WithBlockSize(testBlock),
		core.WithSampleRate(48000),
		core.WithNormalizeMode(ir.NormalizeNone),
		quietLogger(),
	}
	s, err := NewSession(append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func stereoImpulse(t testing.TB, length int) *ir.Impulse {
	t.Helper()
	imp, err := ir.New([][]float64{
		testutil.DecayingNoise[float64](1, length, float64(length)/4),
		testutil.DecayingNoise[float64](2, length, float64(length)/6),
	}, 48000)
	require.NoError(t, err)
	return imp
}

func interleave(channels [][]float64) []float64 {
	n := len(channels)
	out := make([]float64, n*len(channels[0]))
	for c, ch := range channels {
		for i, v := range ch {
			out[i*n+c] = v
		}
	}
	return out
}

func deinterleave(x []float64, n int) [][]float64 {
	out := make([][]float64, n)
	for i, v := range x {
		out[i%n] = append(out[i%n], v)
	}
	return out
}

func TestNewSessionStartsAsIdentity(t *testing.T) {
	s := newTestSession(t, core.WithChannels(1))

	st := s.Stats()
	assert.True(t, st.Identity)
	assert.Equal(t, 1, st.Partitions)
	assert.Equal(t, testBlock, st.BlockSize)
	assert.Equal(t, testBlock, s.Latency())

	x := testutil.Noise[float64](3, 1, testBlock)
	block := append([]float64(nil), x...)
	s.ProcessBlock([][]float64{block})
	testutil.RequireSliceNearlyEqual(t, block, x, 1e-12)
}

func TestNewSessionRejectsBlockSize(t *testing.T) {
	_, err := NewSession(core.WithBlockSize(100), quietLogger())
	require.ErrorIs(t, err, conv.ErrInvalidBlockSize)
}

func TestProcessBlockMatchesDirect(t *testing.T) {
	s := newTestSession(t)
	imp := stereoImpulse(t, 300)
	require.NoError(t, s.LoadImpulse(imp))

	st := s.Stats()
	assert.False(t, st.Identity)
	assert.Equal(t, 5, st.Partitions)
	assert.Equal(t, 300, st.ImpulseLen)

	const blocks = 12
	input := [][]float64{
		testutil.Noise[float64](10, 1, blocks*testBlock),
		testutil.Noise[float64](11, 1, blocks*testBlock),
	}
	output := [][]float64{
		make([]float64, 0, blocks*testBlock),
		make([]float64, 0, blocks*testBlock),
	}
	for b := range blocks {
		planar := [][]float64{
			append([]float64(nil), input[0][b*testBlock:(b+1)*testBlock]...),
			append([]float64(nil), input[1][b*testBlock:(b+1)*testBlock]...),
		}
		s.ProcessBlock(planar)
		output[0] = append(output[0], planar[0]...)
		output[1] = append(output[1], planar[1]...)
	}

	for ch := range 2 {
		want, err := conv.Direct(input[ch], imp.Channels[ch])
		require.NoError(t, err)
		testutil.RequireSliceNearlyEqual(t, output[ch], want[:len(output[ch])], 1e-9)
	}
}

func TestProcessInterleavedAddsOneBlockLatency(t *testing.T) {
	s := newTestSession(t)
	imp := stereoImpulse(t, 150)
	require.NoError(t, s.LoadImpulse(imp))

	frames := 10 * testBlock
	planar := [][]float64{
		testutil.Noise[float64](20, 1, frames),
		testutil.Noise[float64](21, 1, frames),
	}
	src := interleave(planar)
	dst := make([]float64, len(src))
	s.ProcessInterleaved(dst, src)

	got := deinterleave(dst, 2)
	for ch := range 2 {
		want, err := conv.Direct(planar[ch], imp.Channels[ch])
		require.NoError(t, err)
		testutil.RequireSliceNearlyEqual(t, got[ch][:testBlock], make([]float64, testBlock), 0)
		testutil.RequireSliceNearlyEqual(t, got[ch][testBlock:], want[:frames-testBlock], 1e-9)
	}
}

func TestProcessInterleavedCadenceIndependent(t *testing.T) {
	imp := stereoImpulse(t, 500)
	frames := 20 * testBlock
	src := interleave([][]float64{
		testutil.Noise[float64](30, 1, frames),
		testutil.Noise[float64](31, 1, frames),
	})

	reference := newTestSession(t)
	require.NoError(t, reference.LoadImpulse(imp))
	want := make([]float64, len(src))
	reference.ProcessInterleaved(want, src)

	for _, sizes := range [][]int{{1}, {7}, {64}, {100}, {3, 129, 1, 64, 17}} {
		s := newTestSession(t)
		require.NoError(t, s.LoadImpulse(imp))

		got := make([]float64, len(src))
		pos, i := 0, 0
		for pos < frames {
			n := min(sizes[i%len(sizes)], frames-pos)
			s.ProcessInterleaved(got[2*pos:2*(pos+n)], src[2*pos:2*(pos+n)])
			pos += n
			i++
		}
		assert.Equal(t, want, got, "chunk sizes %v", sizes)
	}
}

func TestProcessInterleavedInPlace(t *testing.T) {
	s := newTestSession(t)
	other := newTestSession(t)
	imp := stereoImpulse(t, 90)
	require.NoError(t, s.LoadImpulse(imp))
	require.NoError(t, other.LoadImpulse(imp))

	src := testutil.Noise[float64](40, 1, 2*3*testBlock)
	want := make([]float64, len(src))
	other.ProcessInterleaved(want, src)

	buf := append([]float64(nil), src...)
	s.ProcessInterleaved(buf, buf)
	assert.Equal(t, want, buf)
}

func TestLoadImpulseFallsBackToIdentity(t *testing.T) {
	var logs bytes.Buffer
	s := newTestSession(t,
		core.WithChannels(1),
		core.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	require.NoError(t, s.LoadImpulse(stereoImpulse(t, 100)))
	require.False(t, s.Stats().Identity)

	err := s.LoadImpulse(nil)
	require.ErrorIs(t, err, ErrNilImpulse)
	assert.True(t, s.Stats().Identity)
	assert.Contains(t, logs.String(), "impulse response rejected")

	err = s.LoadImpulse(&ir.Impulse{Channels: [][]float64{{1}, {1, 2}}, SampleRate: 48000})
	require.ErrorIs(t, err, ir.ErrChannelLengthMismatch)
	assert.True(t, s.Stats().Identity)

	x := testutil.Noise[float64](50, 1, testBlock)
	block := append([]float64(nil), x...)
	s.ProcessBlock([][]float64{block})
	testutil.RequireSliceNearlyEqual(t, block, x, 1e-12)
}

func TestLoadImpulseRejectsNonFiniteSamples(t *testing.T) {
	s := newTestSession(t, core.WithChannels(1), core.WithNormalizeMode(ir.NormalizePeak))

	h := make([]float64, 200)
	h[0] = 1
	h[150] = math.NaN()
	err := s.LoadImpulse(&ir.Impulse{Channels: [][]float64{h}, SampleRate: 48000})
	require.ErrorIs(t, err, ir.ErrNonFiniteSample)
	assert.True(t, s.Stats().Identity)

	x := testutil.Noise[float64](51, 1, testBlock)
	block := append([]float64(nil), x...)
	s.ProcessBlock([][]float64{block})
	testutil.RequireFinite(t, block)
	testutil.RequireSliceNearlyEqual(t, block, x, 1e-12)
}

func TestLoadImpulseRemixesAndResamples(t *testing.T) {
	s := newTestSession(t, core.WithChannels(2), core.WithResampleQuality(ir.QualityMedium))

	mono, err := ir.New([][]float64{testutil.DecayingNoise[float64](60, 2400, 400)}, 24000)
	require.NoError(t, err)
	require.NoError(t, s.LoadImpulse(mono))

	st := s.Stats()
	assert.Equal(t, 2, st.Channels)
	assert.InDelta(t, 4800, st.ImpulseLen, 4800*0.02)
	assert.Equal(t, 2400, mono.Len(), "input must not be modified")
}

func TestLoadImpulseNormalizes(t *testing.T) {
	s := newTestSession(t, core.WithChannels(1), core.WithNormalizeMode(ir.NormalizePeak))

	imp, err := ir.New([][]float64{{0.25, 0.125}}, 48000)
	require.NoError(t, err)
	require.NoError(t, s.LoadImpulse(imp))
	assert.InDelta(t, 4, s.Stats().NormalizeGain, 1e-12)

	block := testutil.Impulse[float64](testBlock, 0)
	s.ProcessBlock([][]float64{block})
	assert.InDelta(t, 1, block[0], 1e-12)
	assert.InDelta(t, 0.5, block[1], 1e-12)
}

func TestPruningSessions(t *testing.T) {
	imp := stereoImpulse(t, 1024)

	t.Run("keep all matches dense", func(t *testing.T) {
		dense := newTestSession(t)
		sparse := newTestSession(t, core.WithPruning(-1000, 0))
		require.NoError(t, dense.LoadImpulse(imp))
		require.NoError(t, sparse.LoadImpulse(imp))

		st := sparse.Stats()
		assert.True(t, st.Sparse)
		assert.Equal(t, 1.0, st.Density)
		assert.Equal(t, dense.Stats().KeptBins, st.KeptBins)

		src := testutil.Noise[float64](70, 1, 2*8*testBlock)
		want := make([]float64, len(src))
		got := make([]float64, len(src))
		dense.ProcessInterleaved(want, src)
		sparse.ProcessInterleaved(got, src)
		testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
	})

	t.Run("threshold drops bins", func(t *testing.T) {
		s := newTestSession(t, core.WithPruning(-40, 2))
		require.NoError(t, s.LoadImpulse(imp))

		st := s.Stats()
		assert.True(t, st.Sparse)
		assert.Less(t, st.KeptBins, st.Channels*st.Bins)
		assert.Less(t, st.Density, 1.0)
		assert.Positive(t, st.KeptBins)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ir.wav")
	require.NoError(t, ir.WriteFile(path, stereoImpulse(t, 200), 24))

	s := newTestSession(t)
	require.NoError(t, s.LoadFile(path))
	assert.Equal(t, 200, s.Stats().ImpulseLen)

	require.Error(t, s.LoadFile(filepath.Join(t.TempDir(), "missing.wav")))
	assert.True(t, s.Stats().Identity)
}

func TestResetClearsHistory(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.LoadImpulse(stereoImpulse(t, 300)))

	src := testutil.Noise[float64](80, 1, 2*5*testBlock)
	first := make([]float64, len(src))
	s.ProcessInterleaved(first, src)

	s.Reset()
	second := make([]float64, len(src))
	s.ProcessInterleaved(second, src)
	assert.Equal(t, first, second)
}

func TestSession32(t *testing.T) {
	s, err := NewSession32(
		core.WithBlockSize(testBlock),
		core.WithChannels(1),
		core.WithNormalizeMode(ir.NormalizeNone),
		quietLogger())
	require.NoError(t, err)

	h := testutil.DecayingNoise[float64](90, 200, 50)
	imp, err := ir.New([][]float64{h}, 48000)
	require.NoError(t, err)
	require.NoError(t, s.LoadImpulse(imp))

	x := testutil.Noise[float64](91, 1, 6*testBlock)
	want, err := conv.Direct(x, h)
	require.NoError(t, err)

	got := make([]float32, 0, len(x))
	for b := range 6 {
		block := testutil.Convert[float32](x[b*testBlock : (b+1)*testBlock])
		s.ProcessBlock([][]float32{block})
		got = append(got, block...)
	}
	testutil.RequireSliceNearlyEqual(t, testutil.Convert[float64](got), want[:len(got)], 1e-4)
}

func TestLoadWhileProcessing(t *testing.T) {
	s := newTestSession(t)
	imps := []*ir.Impulse{stereoImpulse(t, 100), stereoImpulse(t, 700)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 20 {
			assert.NoError(t, s.LoadImpulse(imps[i%2]))
		}
	}()

	buf := testutil.Noise[float64](100, 1, 2*37)
	for range 200 {
		s.ProcessInterleaved(buf, buf)
	}
	wg.Wait()
	testutil.RequireFinite(t, buf)
}

func TestProcessInterleavedContract(t *testing.T) {
	if !contract.Enabled {
		t.Skip("contracts disabled")
	}
	s := newTestSession(t)
	assert.Panics(t, func() { s.ProcessInterleaved(make([]float64, 4), make([]float64, 6)) })
	assert.Panics(t, func() { s.ProcessInterleaved(make([]float64, 3), make([]float64, 3)) })
	assert.Panics(t, func() { s.ProcessBlock([][]float64{make([]float64, testBlock)}) })
}
