// Package calc holds the pure projection calculators: the 25-year series,
// the statutory fee escalation resolver, the IRR solver, the payment-scenario
// calculator and the content hash. Nothing here performs I/O.
package calc

import "math"

// Round2 rounds to two decimals. Applying it at the point of computation is
// part of the contract: cumulative figures are accumulated from the rounded
// row values so the persisted series matches the displayed report.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to four decimals, used for rates and custom variables.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
