package ir

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// FromBuffer converts a go-audio buffer into a planar Impulse.
//
// Integer buffers are scaled by their source bit depth into [-1, 1], with
// 8-bit data read as unsigned the way WAV stores it. Float buffers are
// taken as they are.
func FromBuffer(buf audio.Buffer) (*Impulse, error) {
	if buf == nil || buf.PCMFormat() == nil {
		return nil, fmt.Errorf("%w: missing format", ErrUnsupportedFormat)
	}
	format := buf.PCMFormat()
	if format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, format.NumChannels)
	}

	var (
		data  []float64
		scale = 1.0
		shift = 0.0
	)
	switch b := buf.(type) {
	case *audio.IntBuffer:
		data = b.AsFloatBuffer().Data
		depth := b.SourceBitDepth
		if depth == 0 {
			depth = 16
		}
		peak := audio.IntMaxSignedValue(depth)
		if peak == 0 {
			return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, depth)
		}
		scale = 1 / float64(peak)
		if depth == 8 {
			// 8-bit WAV samples are unsigned.
			shift = -128
		}
	default:
		data = buf.AsFloatBuffer().Data
	}

	channels := deinterleave(data, format.NumChannels, scale, shift)
	return New(channels, float64(format.SampleRate))
}

func deinterleave(data []float64, n int, scale, shift float64) [][]float64 {
	frames := len(data) / n
	channels := make([][]float64, n)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}
	for i := range frames {
		for c := range n {
			channels[c][i] = (data[i*n+c] + shift) * scale
		}
	}
	return channels
}

// DecodeWAV reads a PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*Impulse, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
		}
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat == wavFormatFloat {
		return nil, fmt.Errorf("%w: IEEE float WAV", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	return FromBuffer(buf)
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Impulse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	imp, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return imp, nil
}

// EncodeWAV writes imp as integer PCM with the given bit depth (16, 24 or
// 32). Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, imp *Impulse, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("%w: %d-bit output", ErrUnsupportedFormat, bitDepth)
	}
	if imp == nil || imp.Len() == 0 {
		return ErrEmptyIR
	}

	n := imp.NumChannels()
	peak := float64(audio.IntMaxSignedValue(bitDepth))
	data := make([]int, n*imp.Len())
	for c, ch := range imp.Channels {
		for i, v := range ch {
			data[i*n+c] = int(math.Round(min(max(v, -1), 1) * peak))
		}
	}

	enc := wav.NewEncoder(w, int(imp.SampleRate), bitDepth, n, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: n, SampleRate: int(imp.SampleRate)},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("ir: write WAV: %w", err)
	}
	return enc.Close()
}

// WriteFile encodes imp to a WAV file at path.
func WriteFile(path string, imp *Impulse, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, imp, bitDepth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
