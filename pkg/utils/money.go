package utils

import "math"

// Round2 rounds a monetary amount to 2 decimal places. Every price that
// leaves the bidding engine goes through this before being persisted.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
