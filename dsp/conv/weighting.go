package conv

import (
	"fmt"
	"math"
	"strings"
)

// Weighting maps a frequency in Hz to a gain offset in dB. Pruning adds the
// offset to each bin's level before comparing it with the threshold.
type Weighting interface {
	Weight(freqHz float64) float64
}

// FlatWeighting applies no frequency weighting.
type FlatWeighting struct{}

// Weight returns 0 for every frequency.
func (FlatWeighting) Weight(float64) float64 { return 0 }

// AWeighting is the IEC 61672 A-weighting curve, normalized to about 0 dB
// at 1 kHz. DC maps to 0 dB so the lowest bin is never penalized.
type AWeighting struct{}

var aWeightPoles = [4]float64{
	12194.217 * 12194.217,
	20.598997 * 20.598997,
	107.65265 * 107.65265,
	737.86223 * 737.86223,
}

// Weight returns the A-weighting gain at freqHz in dB.
func (AWeighting) Weight(freqHz float64) float64 {
	if freqHz <= 0 {
		return 0
	}
	f2 := freqHz * freqHz
	return 2 + 20*(math.Log10(aWeightPoles[0])+
		2*math.Log10(f2)-
		math.Log10(f2+aWeightPoles[0])-
		math.Log10(f2+aWeightPoles[1])-
		0.5*math.Log10(f2+aWeightPoles[2])-
		0.5*math.Log10(f2+aWeightPoles[3]))
}

// ParseWeighting returns the curve for "flat"/"none" or "a"/"a-weighting".
func ParseWeighting(name string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "flat", "none":
		return FlatWeighting{}, nil
	case "a", "a-weighting", "aweighting":
		return AWeighting{}, nil
	default:
		return nil, fmt.Errorf("conv: unknown weighting %q", name)
	}
}
