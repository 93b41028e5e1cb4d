package ir

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// NormalizeMode selects how Normalize scales a response.
type NormalizeMode int

const (
	// NormalizeNone leaves the response untouched.
	NormalizeNone NormalizeMode = iota
	// NormalizePeak scales the loudest sample of any channel to 1.
	NormalizePeak
	// NormalizeRMS scales the loudest channel to unit RMS.
	NormalizeRMS
	// NormalizeEnergy scales the loudest channel to unit energy, so a
	// full-scale input keeps its level after convolution.
	NormalizeEnergy
)

var normalizeNames = [...]string{"none", "peak", "rms", "energy"}

func (m NormalizeMode) String() string {
	if m < 0 || int(m) >= len(normalizeNames) {
		return fmt.Sprintf("NormalizeMode(%d)", int(m))
	}
	return normalizeNames[m]
}

// ParseNormalizeMode maps a name such as "energy" to a NormalizeMode.
func ParseNormalizeMode(name string) (NormalizeMode, error) {
	name = strings.ToLower(name)
	for i, n := range normalizeNames {
		if n == name {
			return NormalizeMode(i), nil
		}
	}
	return 0, fmt.Errorf("ir: unknown normalize mode %q", name)
}

// Normalize scales all channels in place by one common factor, keeping
// the balance between channels, and returns that factor. A silent
// response is left unchanged with factor 1.
func (imp *Impulse) Normalize(mode NormalizeMode) (float64, error) {
	var level float64
	for _, ch := range imp.Channels {
		if len(ch) == 0 {
			continue
		}
		var l float64
		switch mode {
		case NormalizeNone:
			return 1, nil
		case NormalizePeak:
			l = floats.Norm(ch, math.Inf(1))
		case NormalizeRMS:
			l = floats.Norm(ch, 2) / math.Sqrt(float64(len(ch)))
		case NormalizeEnergy:
			l = floats.Norm(ch, 2)
		default:
			return 0, fmt.Errorf("ir: unknown normalize mode %d", int(mode))
		}
		level = max(level, l)
	}
	if level == 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return 1, nil
	}

	factor := 1 / level
	for _, ch := range imp.Channels {
		floats.Scale(factor, ch)
	}
	return factor, nil
}

// Peak returns the largest absolute sample across channels.
func (imp *Impulse) Peak() float64 {
	var peak float64
	for _, ch := range imp.Channels {
		if len(ch) > 0 {
			peak = max(peak, floats.Norm(ch, math.Inf(1)))
		}
	}
	return peak
}
