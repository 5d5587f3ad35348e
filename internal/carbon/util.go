package carbon

import "math"

// round1 rounds to one decimal place, the precision of every reported figure.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
