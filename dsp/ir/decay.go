package ir

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoDecay is returned when the energy decay never spans the requested
// level range.
var ErrNoDecay = errors.New("ir: insufficient decay for RT calculation")

const schroederFloorDB = -200

// Schroeder returns the backward-integrated energy decay curve in dB
// relative to the total energy, summed over all channels:
//
//	S(n) = 10*log10( sum_{k>=n} h²(k) / sum_k h²(k) )
//
// A silent response yields a curve at the -200 dB floor.
func (imp *Impulse) Schroeder() []float64 {
	n := imp.Len()
	curve := make([]float64, n)

	var sum float64
	for i := n - 1; i >= 0; i-- {
		for _, ch := range imp.Channels {
			sum += ch[i] * ch[i]
		}
		curve[i] = sum
	}

	total := 0.0
	if n > 0 {
		total = curve[0]
	}
	for i, e := range curve {
		if total <= 0 || e <= 0 {
			curve[i] = schroederFloorDB
			continue
		}
		curve[i] = 10 * math.Log10(e/total)
	}
	return curve
}

// DecayTime fits a line to the Schroeder curve between startDB and endDB
// (both negative, startDB > endDB) and extrapolates it to -60 dB. The
// result is in seconds.
func (imp *Impulse) DecayTime(startDB, endDB float64) (float64, error) {
	if imp.Len() == 0 {
		return 0, ErrEmptyIR
	}
	if imp.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}
	return decayTime(imp.Schroeder(), imp.SampleRate, startDB, endDB)
}

// RT60 estimates the reverberation time from the -5..-35 dB range (T30),
// falling back to -5..-25 dB (T20) for short decays.
func (imp *Impulse) RT60() (float64, error) {
	if imp.Len() == 0 {
		return 0, ErrEmptyIR
	}
	if imp.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}
	curve := imp.Schroeder()
	if rt, err := decayTime(curve, imp.SampleRate, -5, -35); err == nil {
		return rt, nil
	}
	return decayTime(curve, imp.SampleRate, -5, -25)
}

func decayTime(curve []float64, sampleRate, startDB, endDB float64) (float64, error) {
	first, last := -1, -1
	for i, v := range curve {
		if first < 0 && v <= startDB {
			first = i
		}
		if v <= endDB {
			last = i
			break
		}
	}
	if first < 0 || last <= first+1 {
		return 0, ErrNoDecay
	}

	xs := make([]float64, last-first+1)
	for i := range xs {
		xs[i] = float64(first+i) / sampleRate
	}
	_, slope := stat.LinearRegression(xs, curve[first:last+1], nil, false)
	if slope >= 0 || math.IsNaN(slope) {
		return 0, ErrNoDecay
	}
	return -60 / slope, nil
}
