package ir

import (
	"fmt"
	"strings"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Quality selects the resampling filter used when an impulse response
// arrives at a different sample rate than the session.
type Quality int

const (
	// QualityQuick uses the shortest filter, for previews.
	QualityQuick Quality = iota
	// QualityLow trades passband flatness for speed.
	QualityLow
	// QualityMedium is a balanced filter.
	QualityMedium
	// QualityHigh is the default for loading responses.
	QualityHigh
	// QualityVeryHigh uses the longest filter and the widest passband.
	QualityVeryHigh
)

var qualityNames = [...]string{"quick", "low", "medium", "high", "veryhigh"}

// String returns the name ParseQuality accepts for q.
func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// ParseQuality maps a name such as "high" to a Quality.
func ParseQuality(name string) (Quality, error) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", ""))
	for i, n := range qualityNames {
		if n == name {
			return Quality(i), nil
		}
	}
	return 0, fmt.Errorf("ir: unknown resample quality %q", name)
}

func (q Quality) preset() resampler.QualityPreset {
	switch q {
	case QualityQuick:
		return resampler.QualityQuick
	case QualityLow:
		return resampler.QualityLow
	case QualityMedium:
		return resampler.QualityMedium
	case QualityVeryHigh:
		return resampler.QualityVeryHigh
	default:
		return resampler.QualityHigh
	}
}

// Resample converts the response to rate. A response already at rate is
// returned as a copy. Channels are resampled independently and trimmed to
// the shortest result so they stay aligned.
func (imp *Impulse) Resample(rate float64, q Quality) (*Impulse, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, rate)
	}
	if imp.Len() == 0 {
		return nil, ErrEmptyIR
	}
	if rate == imp.SampleRate {
		return imp.Clone(), nil
	}

	channels := make([][]float64, imp.NumChannels())
	frames := -1
	for c, ch := range imp.Channels {
		out, err := resampler.ResampleMono(ch, imp.SampleRate, rate, q.preset())
		if err != nil {
			return nil, fmt.Errorf("ir: resample channel %d from %v to %v Hz: %w", c, imp.SampleRate, rate, err)
		}
		channels[c] = out
		if frames < 0 || len(out) < frames {
			frames = len(out)
		}
	}
	if frames <= 0 {
		return nil, ErrEmptyIR
	}
	for c := range channels {
		channels[c] = channels[c][:frames]
	}
	return &Impulse{Channels: channels, SampleRate: rate}, nil
}
