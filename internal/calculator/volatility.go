package calculator

import (
	"math"

	"github.com/guregu/null/v6"
)

// RollingStdDev computes the sample standard deviation (n-1 divisor) of the
// trailing window of values. A cell has a value only when every input in its
// window has one.
func RollingStdDev(values []null.Float, window int) []null.Float {
	out := make([]null.Float, len(values))
	if window < 2 {
		return out
	}
	run := 0 // consecutive valid inputs ending at i
	for i, v := range values {
		if !v.Valid {
			run = 0
			continue
		}
		run++
		if run < window {
			continue
		}
		lo := i - window + 1
		mean := 0.0
		for j := lo; j <= i; j++ {
			mean += values[j].Float64
		}
		mean /= float64(window)
		ss := 0.0
		for j := lo; j <= i; j++ {
			d := values[j].Float64 - mean
			ss += d * d
		}
		out[i] = cell(math.Sqrt(ss / float64(window-1)))
	}
	return out
}

// Volatility is the rolling sample standard deviation of daily returns.
func Volatility(closes []float64, window int) []null.Float {
	return RollingStdDev(DailyReturns(closes), window)
}

// cell wraps v, turning NaN into no value.
func cell(v float64) null.Float {
	if math.IsNaN(v) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
