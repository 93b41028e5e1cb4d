package ir

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
	"gonum.org/v1/gonum/floats"
)

// Errors returned by impulse response ingestion.
var (
	ErrEmptyIR               = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate     = errors.New("ir: sample rate must be positive")
	ErrChannelLengthMismatch = errors.New("ir: channels differ in length")
	ErrUnsupportedFormat     = errors.New("ir: unsupported audio format")
	ErrInvalidWAV            = errors.New("ir: invalid WAV data")
	ErrNonFiniteSample       = errors.New("ir: sample is NaN or infinite")
)

// Impulse is a planar multi-channel impulse response with samples in
// [-1, 1] at SampleRate Hz. All channels have the same length.
type Impulse struct {
	Channels   [][]float64
	SampleRate float64
}

// New validates channels and wraps them without copying. Channels must be
// non-empty, of equal length and hold only finite samples.
func New(channels [][]float64, sampleRate float64) (*Impulse, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, ErrEmptyIR
	}
	for ch, samples := range channels {
		if len(samples) != len(channels[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrChannelLengthMismatch, ch, len(samples), len(channels[0]))
		}
	}
	for ch, samples := range channels {
		if floats.HasNaN(samples) || math.IsInf(floats.Norm(samples, math.Inf(1)), 1) {
			return nil, fmt.Errorf("%w: channel %d", ErrNonFiniteSample, ch)
		}
	}
	return &Impulse{Channels: channels, SampleRate: sampleRate}, nil
}

// NumChannels returns the number of channels.
func (imp *Impulse) NumChannels() int { return len(imp.Channels) }

// Len returns the number of samples per channel.
func (imp *Impulse) Len() int {
	if len(imp.Channels) == 0 {
		return 0
	}
	return len(imp.Channels[0])
}

// Duration returns the length of the response in time.
func (imp *Impulse) Duration() time.Duration {
	if imp.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(imp.Len()) / imp.SampleRate * float64(time.Second))
}

// Clone returns a deep copy.
func (imp *Impulse) Clone() *Impulse {
	channels := make([][]float64, len(imp.Channels))
	for i, ch := range imp.Channels {
		channels[i] = append([]float64(nil), ch...)
	}
	return &Impulse{Channels: channels, SampleRate: imp.SampleRate}
}

// Remix returns an impulse with n channels. A mono response is copied to
// every channel, a mix down to mono averages all channels, and any other
// change reuses the source channels in order, wrapping around.
func (imp *Impulse) Remix(n int) (*Impulse, error) {
	if n < 1 {
		return nil, fmt.Errorf("ir: cannot remix to %d channels", n)
	}
	src := imp.NumChannels()
	if src == 0 {
		return nil, ErrEmptyIR
	}
	if n == src {
		return imp.Clone(), nil
	}

	out := &Impulse{Channels: make([][]float64, n), SampleRate: imp.SampleRate}
	if n == 1 {
		mono := make([]float64, imp.Len())
		for _, ch := range imp.Channels {
			for i, v := range ch {
				mono[i] += v
			}
		}
		for i := range mono {
			mono[i] /= float64(src)
		}
		out.Channels[0] = mono
		return out, nil
	}

	for ch := range n {
		out.Channels[ch] = append([]float64(nil), imp.Channels[ch%src]...)
	}
	return out, nil
}

// Float32 returns a float32 copy of the channels.
func (imp *Impulse) Float32() [][]float32 {
	out := make([][]float32, len(imp.Channels))
	for c, ch := range imp.Channels {
		out[c] = make([]float32, len(ch))
		for i, v := range ch {
			out[c][i] = float32(v)
		}
	}
	return out
}

// Buffer returns the response as an interleaved go-audio float buffer.
func (imp *Impulse) Buffer() *audio.FloatBuffer {
	n, frames := imp.NumChannels(), imp.Len()
	data := make([]float64, n*frames)
	for c, ch := range imp.Channels {
		for i, v := range ch {
			data[i*n+c] = v
		}
	}
	return &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: n, SampleRate: int(imp.SampleRate)},
		Data:   data,
	}
}
