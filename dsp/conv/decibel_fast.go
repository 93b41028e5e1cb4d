//go:build fastmath

package conv

import (
	"github.com/meko-christian/algo-approx"
)

// ln10 is the natural logarithm of 10, used for log base conversions.
const ln10 = 2.30258509299404568401799145468

// gainToDB converts a linear gain to dB using fast approximation,
// floored at minDB. Gains up to unity never map above 0 dB, so a bin at
// the reference level compares the same way as with math.Log10.
func gainToDB(gain float64) float64 {
	if gain <= 0 {
		return minDB
	}
	db := max(20*approx.FastLog(gain)/ln10, minDB)
	if gain <= 1 {
		db = min(db, 0)
	}
	return db
}
