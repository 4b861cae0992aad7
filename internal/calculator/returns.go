package calculator

import (
	"github.com/guregu/null/v6"
)

// DailyReturns computes c[i]/c[i-1]-1. The first cell has no value, and so
// does any 0/0 step.
func DailyReturns(closes []float64) []null.Float {
	out := make([]null.Float, len(closes))
	for i := 1; i < len(closes); i++ {
		out[i] = cell(closes[i]/closes[i-1] - 1)
	}
	return out
}

// CumulativeReturns compounds daily returns from the start of the series:
// cr[i] = prod(1+r[1..i]) - 1. Days without a return are skipped and carry
// no value themselves.
func CumulativeReturns(closes []float64) []null.Float {
	daily := DailyReturns(closes)
	out := make([]null.Float, len(closes))
	growth := 1.0
	for i := 1; i < len(daily); i++ {
		if !daily[i].Valid {
			continue
		}
		growth *= 1 + daily[i].Float64
		out[i] = cell(growth - 1)
	}
	return out
}
