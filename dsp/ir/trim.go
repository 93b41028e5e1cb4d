package ir

import (
	"fmt"
	"math"
)

// TrimOptions controls Trim.
type TrimOptions struct {
	// StartRatio removes leading samples until any channel reaches
	// StartRatio times the peak. 0 keeps the start.
	StartRatio float64
	// PreRoll keeps this many samples before the detected start.
	PreRoll int
	// TailDB cuts the tail where the Schroeder curve falls below it.
	// 0 or -Inf keeps the tail.
	TailDB float64
	// FadeOut applies a raised-cosine fade over the last FadeOut samples
	// once the tail has been cut.
	FadeOut int
}

// DefaultTrimOptions removes pre-delay below -20 dB of the peak with a
// 16 sample pre-roll and cuts the tail once 96 dB of energy have decayed.
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{
		StartRatio: 0.1,
		PreRoll:    16,
		TailDB:     -96,
		FadeOut:    64,
	}
}

// Trim shortens the response in place and returns the kept range
// [start, end) in samples of the original response. All channels are cut
// at the same positions.
func (imp *Impulse) Trim(opts TrimOptions) (start, end int, err error) {
	n := imp.Len()
	if n == 0 {
		return 0, 0, ErrEmptyIR
	}
	if opts.StartRatio < 0 || opts.StartRatio > 1 || math.IsNaN(opts.StartRatio) {
		return 0, 0, fmt.Errorf("ir: start ratio %v outside [0, 1]", opts.StartRatio)
	}
	if opts.PreRoll < 0 || opts.FadeOut < 0 {
		return 0, 0, fmt.Errorf("ir: negative pre-roll %d or fade-out %d", opts.PreRoll, opts.FadeOut)
	}

	end = n
	if opts.TailDB < 0 && !math.IsInf(opts.TailDB, -1) {
		curve := imp.Schroeder()
		for i, v := range curve {
			if v < opts.TailDB {
				end = max(i, 1)
				break
			}
		}
	}

	if opts.StartRatio > 0 {
		start = imp.onset(opts.StartRatio, end)
		start = max(start-opts.PreRoll, 0)
	}

	for c, ch := range imp.Channels {
		imp.Channels[c] = ch[start:end:end]
	}
	if end < n && opts.FadeOut > 0 {
		imp.fadeOut(min(opts.FadeOut, end-start))
	}
	return start, end, nil
}

// onset returns the first index below limit where any channel reaches
// ratio times the overall peak.
func (imp *Impulse) onset(ratio float64, limit int) int {
	threshold := imp.Peak() * ratio
	if threshold == 0 {
		return 0
	}
	for i := range limit {
		for _, ch := range imp.Channels {
			if math.Abs(ch[i]) >= threshold {
				return i
			}
		}
	}
	return 0
}

func (imp *Impulse) fadeOut(length int) {
	if length <= 0 {
		return
	}
	n := imp.Len()
	for i := range length {
		g := 0.5 * (1 + math.Cos(math.Pi*float64(i+1)/float64(length)))
		for _, ch := range imp.Channels {
			ch[n-length+i] *= g
		}
	}
}
