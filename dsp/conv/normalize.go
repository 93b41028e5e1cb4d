package conv

import (
	"math"

	"github.com/cwbudde/algo-upols/dsp/fft"
)

// EnergyFactor returns 1/sqrt(sum x^2), the gain that brings x to unit
// energy, or 1 if x is silent.
func EnergyFactor[F fft.Float](x []F) float64 {
	energy := 0.0
	for _, v := range x {
		energy += float64(v) * float64(v)
	}
	if energy == 0 {
		return 1
	}
	return 1 / math.Sqrt(energy)
}

// NormalizeImpulse scales all channels of impulse in place by the smallest
// per-channel energy factor, so the loudest channel reaches unit energy and
// the balance between channels is kept. It returns the applied factor.
func NormalizeImpulse[F fft.Float](impulse [][]F) float64 {
	if len(impulse) == 0 {
		return 1
	}

	factor := math.Inf(1)
	for _, ch := range impulse {
		factor = min(factor, EnergyFactor(ch))
	}

	g := F(factor)
	for _, ch := range impulse {
		for i := range ch {
			ch[i] *= g
		}
	}
	return factor
}
