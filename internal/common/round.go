package common

import "github.com/shopspring/decimal"

// Round2 rounds a monetary or percentage value to 2 decimal places using
// half-up rounding. Float math accumulates noise over year-long series, so
// output values go through decimal instead of math.Round tricks.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
