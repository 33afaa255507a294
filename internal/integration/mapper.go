package integration

import "math"

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
