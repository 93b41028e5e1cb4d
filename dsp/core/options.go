package core

import (
	"log/slog"
	"math"

	"github.com/cwbudde/algo-upols/dsp/conv"
	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/dsp/ir"
)

// ProcessorConfig defines the settings of a multi-channel convolution
// session.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int

	// PruneThresholdDB drops filter bins whose level relative to the
	// loudest bin is at or below it. -Inf disables pruning.
	PruneThresholdDB float64
	KeepLowBins      int
	Weighting        conv.Weighting

	Backend     fft.Backend
	Scheme      conv.Scheme
	CompressFDL bool

	NormalizeMode   ir.NormalizeMode
	ResampleQuality ir.Quality

	Logger *slog.Logger
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns a stereo 48 kHz configuration with 512
// sample blocks, energy normalization and no pruning.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate:       48000,
		BlockSize:        512,
		Channels:         2,
		PruneThresholdDB: math.Inf(-1),
		Weighting:        conv.FlatWeighting{},
		Backend:          fft.BackendReference,
		Scheme:           conv.SchemeOverlapSave,
		NormalizeMode:    ir.NormalizeEnergy,
		ResampleQuality:  ir.QualityHigh,
		Logger:           slog.Default(),
	}
}

// Pruning reports whether the configuration asks for a sparse filter.
func (c ProcessorConfig) Pruning() bool {
	return !math.IsInf(c.PruneThresholdDB, -1)
}

// PruneOptions returns the options handed to conv.Prune.
func (c ProcessorConfig) PruneOptions() conv.PruneOptions {
	return conv.PruneOptions{
		ThresholdDB: c.PruneThresholdDB,
		KeepLowBins: c.KeepLowBins,
		Weighting:   c.Weighting,
		SampleRate:  c.SampleRate,
	}
}

// EngineOptions returns the engine options matching the configuration.
func (c ProcessorConfig) EngineOptions() []conv.EngineOption {
	opts := []conv.EngineOption{
		conv.WithFFTBackend(c.Backend),
		conv.WithScheme(c.Scheme),
	}
	if c.CompressFDL {
		opts = append(opts, conv.WithCompressedFDL())
	}
	return opts
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the number of audio channels.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithPruning enables sparse filters: bins at or below thresholdDB are
// dropped, except the lowest keepLowBins bins of each partition.
func WithPruning(thresholdDB float64, keepLowBins int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if !math.IsNaN(thresholdDB) {
			cfg.PruneThresholdDB = thresholdDB
		}
		if keepLowBins >= 0 {
			cfg.KeepLowBins = keepLowBins
		}
	}
}

// WithWeighting sets the frequency weighting used by pruning.
func WithWeighting(w conv.Weighting) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if w != nil {
			cfg.Weighting = w
		}
	}
}

// WithBackend selects the FFT backend of every engine.
func WithBackend(b fft.Backend) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		cfg.Backend = b
	}
}

// WithScheme selects overlap-save or overlap-add engines.
func WithScheme(s conv.Scheme) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		cfg.Scheme = s
	}
}

// WithCompressedFDL stores the delay lines as 16-bit block floating point.
func WithCompressedFDL(enabled bool) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		cfg.CompressFDL = enabled
	}
}

// WithNormalizeMode sets how impulse responses are normalized on load.
func WithNormalizeMode(mode ir.NormalizeMode) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		cfg.NormalizeMode = mode
	}
}

// WithResampleQuality sets the quality used when an impulse response has
// to be converted to the session sample rate.
func WithResampleQuality(q ir.Quality) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		cfg.ResampleQuality = q
	}
}

// WithLogger sets the logger for setup events. nil keeps the default.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
