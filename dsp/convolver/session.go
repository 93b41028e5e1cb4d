package convolver

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-upols/dsp/buffer"
	"github.com/cwbudde/algo-upols/dsp/conv"
	"github.com/cwbudde/algo-upols/dsp/core"
	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/dsp/ir"
	"github.com/cwbudde/algo-upols/internal/contract"
	"github.com/cwbudde/algo-upols/internal/lane"
)

// ErrNilImpulse is returned by LoadImpulse for a nil response.
var ErrNilImpulse = errors.New("convolver: impulse response is nil")

// Stats describes the filter currently bound to a session.
type Stats struct {
	Channels   int
	BlockSize  int
	SampleRate float64
	Partitions int
	// Bins is the number of spectrum bins per channel before pruning.
	Bins int
	// KeptBins counts the bins the engines multiply per block, summed over
	// channels.
	KeptBins int
	Density  float64
	Sparse   bool
	Identity bool
	// ImpulseLen is the length of the prepared response in samples.
	ImpulseLen int
	// NormalizeGain is the factor applied by normalization.
	NormalizeGain float64
	Backend       fft.Backend
	Kernels       string
}

type engineSet[F fft.Float, C fft.Complex] struct {
	engines []*conv.EngineT[F, C]
	stats   Stats
}

// SessionT runs one partitioned convolution engine per channel.
//
// Setup calls (LoadImpulse, LoadFile) may come from any goroutine and are
// serialized internally. Processing calls (ProcessBlock, ProcessInterleaved,
// Reset) must come from a single goroutine. A filter change takes effect at
// the next processed block; the new engines start with empty history.
type SessionT[F fft.Float, C fft.Complex] struct {
	cfg    core.ProcessorConfig
	logger *slog.Logger

	mu     sync.Mutex
	active atomic.Pointer[engineSet[F, C]]

	// Owned by the processing goroutine.
	fifo *buffer.BlockFIFO[F]
}

// engineFeed runs the active engines on blocks handed over by the FIFO.
type engineFeed[F fft.Float, C fft.Complex] struct {
	active *atomic.Pointer[engineSet[F, C]]
}

func (f engineFeed[F, C]) ProcessBlocks(out, in [][]F) {
	for ch, e := range f.active.Load().engines {
		e.ProcessTo(out[ch], in[ch])
	}
}

// Session is the float64 session.
type Session = SessionT[float64, complex128]

// Session32 is the float32 session.
type Session32 = SessionT[float32, complex64]

// NewSessionT creates a session bound to the identity filter.
func NewSessionT[F fft.Float, C fft.Complex](opts ...core.ProcessorOption) (*SessionT[F, C], error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if !fft.IsPowerOf2(cfg.BlockSize) {
		return nil, fmt.Errorf("%w: %d", conv.ErrInvalidBlockSize, cfg.BlockSize)
	}

	fifo, err := buffer.NewBlockFIFO(cfg.Channels, cfg.BlockSize,
		buffer.WithInterleave2(lane.For[F, C]().Interleave2))
	if err != nil {
		return nil, err
	}
	s := &SessionT[F, C]{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "convolver"),
		fifo:   fifo,
	}

	set, err := s.identitySet()
	if err != nil {
		return nil, err
	}
	s.active.Store(set)

	s.logger.Debug("session created",
		"channels", cfg.Channels,
		"block", cfg.BlockSize,
		"rate", cfg.SampleRate,
		"scheme", cfg.Scheme,
		"backend", cfg.Backend,
		"kernels", set.stats.Kernels,
		"cpu", lane.Describe())
	return s, nil
}

// NewSession creates a float64 session.
func NewSession(opts ...core.ProcessorOption) (*Session, error) {
	return NewSessionT[float64, complex128](opts...)
}

// NewSession32 creates a float32 session.
func NewSession32(opts ...core.ProcessorOption) (*Session32, error) {
	return NewSessionT[float32, complex64](opts...)
}

// Config returns the session configuration.
func (s *SessionT[F, C]) Config() core.ProcessorConfig { return s.cfg }

// NumChannels returns the channel count.
func (s *SessionT[F, C]) NumChannels() int { return s.cfg.Channels }

// BlockSize returns the engine block size.
func (s *SessionT[F, C]) BlockSize() int { return s.cfg.BlockSize }

// Latency returns the delay ProcessInterleaved adds, in frames.
// ProcessBlock adds none.
func (s *SessionT[F, C]) Latency() int { return s.cfg.BlockSize }

// Stats describes the active filter.
func (s *SessionT[F, C]) Stats() Stats { return s.active.Load().stats }

// LoadFile decodes a WAV impulse response and loads it.
func (s *SessionT[F, C]) LoadFile(path string) error {
	imp, err := ir.ReadFile(path)
	if err != nil {
		s.mu.Lock()
		s.fallback(err)
		s.mu.Unlock()
		return err
	}
	return s.LoadImpulse(imp)
}

// LoadImpulse prepares imp for the session and swaps it in: the response is
// remixed to the channel count, resampled to the session rate, normalized,
// partitioned and, when pruning is configured, pruned. imp is not modified.
//
// On failure the session falls back to the identity filter, so processing
// continues as pass-through, and the error is returned.
func (s *SessionT[F, C]) LoadImpulse(imp *ir.Impulse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.buildSet(imp)
	if err != nil {
		s.fallback(err)
		return err
	}
	s.active.Store(set)

	st := set.stats
	s.logger.Info("impulse response loaded",
		"length", st.ImpulseLen,
		"partitions", st.Partitions,
		"gain", st.NormalizeGain)
	if st.Sparse {
		s.logger.Info("filter pruned",
			"threshold_db", s.cfg.PruneThresholdDB,
			"kept_bins", st.KeptBins,
			"density", st.Density)
	}
	return nil
}

// fallback binds fresh identity engines after a failed load. Callers hold
// s.mu.
func (s *SessionT[F, C]) fallback(cause error) {
	s.logger.Warn("impulse response rejected, passing audio through", "err", cause)
	set, err := s.identitySet()
	if err != nil {
		s.logger.Error("identity filter unavailable", "err", err)
		return
	}
	s.active.Store(set)
}

func (s *SessionT[F, C]) buildSet(imp *ir.Impulse) (*engineSet[F, C], error) {
	if imp == nil {
		return nil, ErrNilImpulse
	}
	if _, err := ir.New(imp.Channels, imp.SampleRate); err != nil {
		return nil, err
	}

	prepared, err := imp.Remix(s.cfg.Channels)
	if err != nil {
		return nil, err
	}
	prepared, err = prepared.Resample(s.cfg.SampleRate, s.cfg.ResampleQuality)
	if err != nil {
		return nil, err
	}
	gain, err := prepared.Normalize(s.cfg.NormalizeMode)
	if err != nil {
		return nil, err
	}

	filter, err := conv.Partition[F, C](toFloat[F](prepared.Channels), s.cfg.BlockSize,
		fft.WithBackend(s.cfg.Backend))
	if err != nil {
		return nil, err
	}

	var sparse *conv.SparseFilterT[C]
	if s.cfg.Pruning() {
		sparse, err = conv.Prune(filter, s.cfg.PruneOptions())
		if err != nil {
			return nil, err
		}
	}

	set, err := s.newSet(filter, sparse)
	if err != nil {
		return nil, err
	}
	set.stats.ImpulseLen = prepared.Len()
	set.stats.NormalizeGain = gain
	return set, nil
}

func (s *SessionT[F, C]) identitySet() (*engineSet[F, C], error) {
	filter, err := conv.IdentityFilter[C](s.cfg.BlockSize, s.cfg.Channels)
	if err != nil {
		return nil, err
	}
	set, err := s.newSet(filter, nil)
	if err != nil {
		return nil, err
	}
	set.stats.Identity = true
	set.stats.ImpulseLen = 1
	set.stats.NormalizeGain = 1
	return set, nil
}

func (s *SessionT[F, C]) newSet(filter *conv.FilterT[C], sparse *conv.SparseFilterT[C]) (*engineSet[F, C], error) {
	set := &engineSet[F, C]{engines: make([]*conv.EngineT[F, C], s.cfg.Channels)}
	for ch := range set.engines {
		e, err := conv.NewEngineT[F, C](s.cfg.BlockSize, s.cfg.EngineOptions()...)
		if err != nil {
			return nil, err
		}
		if sparse != nil {
			err = e.SetSparseFilter(sparse.Channel(ch))
		} else {
			err = e.SetFilter(filter.Channel(ch))
		}
		if err != nil {
			return nil, fmt.Errorf("convolver: channel %d: %w", ch, err)
		}
		set.engines[ch] = e
	}

	total := filter.NumPartitions() * filter.NumBins()
	st := Stats{
		Channels:   s.cfg.Channels,
		BlockSize:  s.cfg.BlockSize,
		SampleRate: s.cfg.SampleRate,
		Partitions: filter.NumPartitions(),
		Bins:       total,
		KeptBins:   total * s.cfg.Channels,
		Density:    1,
		Backend:    set.engines[0].Backend(),
		Kernels:    set.engines[0].Kernels(),
	}
	if sparse != nil {
		st.Sparse = true
		st.KeptBins = sparse.NNZ()
		st.Density = sparse.Density()
	}
	set.stats = st
	return set, nil
}

// ProcessBlock convolves one block per channel in place. channels must
// hold NumChannels slices of BlockSize samples each.
func (s *SessionT[F, C]) ProcessBlock(channels [][]F) {
	set := s.active.Load()
	contract.RequireLen(len(channels), len(set.engines), "channels")
	for ch, e := range set.engines {
		e.Process(channels[ch])
	}
}

// ProcessInterleaved convolves interleaved frames of any count from src
// into dst. Input is collected into blocks internally, so output lags input
// by Latency frames. dst and src may be the same slice.
func (s *SessionT[F, C]) ProcessInterleaved(dst, src []F) {
	nch := s.cfg.Channels
	contract.RequireLen(len(dst), len(src), "interleaved output")
	contract.Require(len(src)%nch == 0, "convolver: interleaved length is not a multiple of the channel count")

	s.fifo.Exchange(dst, src, engineFeed[F, C]{active: &s.active})
}

// Reset clears the engine history and the interleaved FIFO.
func (s *SessionT[F, C]) Reset() {
	for _, e := range s.active.Load().engines {
		e.Reset()
	}
	s.fifo.Reset()
}

func toFloat[F fft.Float](src [][]float64) [][]F {
	out := make([][]F, len(src))
	for c, ch := range src {
		out[c] = make([]F, len(ch))
		for i, v := range ch {
			out[c][i] = F(v)
		}
	}
	return out
}
