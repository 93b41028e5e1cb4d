//go:build !fastmath

package conv

import "math"

// gainToDB converts a linear gain to dB, floored at minDB.
func gainToDB(gain float64) float64 {
	if gain <= 0 {
		return minDB
	}
	return max(20*math.Log10(gain), minDB)
}
