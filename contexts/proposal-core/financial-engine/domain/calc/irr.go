package calc

import "math"

const (
	irrLowerBound = -0.5
	irrUpperBound = 5.0
	irrIterations = 100
	irrTolerance  = 0.01
)

// SolveIRR finds the internal rate of return of an investment followed by
// yearly cash flows, by bisection over the NPV function. NPV is assumed
// monotonic in the rate (flows are predominantly positive after the initial
// outlay). Non-convergence is not an error: the midpoint after the last
// iteration is returned as a best-effort estimate. Result is a percentage.
func SolveIRR(investment float64, cashFlows []float64) float64 {
	low, high := irrLowerBound, irrUpperBound
	mid := (low + high) / 2

	for i := 0; i < irrIterations; i++ {
		mid = (low + high) / 2
		npv := npvAtRate(investment, cashFlows, mid)
		if math.Abs(npv) < irrTolerance {
			break
		}
		if npv > 0 {
			low = mid
		} else {
			high = mid
		}
	}
	return mid * 100
}

func npvAtRate(investment float64, cashFlows []float64, rate float64) float64 {
	npv := -investment
	for i, flow := range cashFlows {
		npv += flow / math.Pow(1+rate, float64(i+1))
	}
	return npv
}
