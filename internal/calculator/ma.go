package calculator

import (
	"github.com/guregu/null/v6"
)

// SMA computes the simple moving average of prices over a trailing window
// for every index. Cells before window-1 have no value.
func SMA(prices []float64, window int) []null.Float {
	out := make([]null.Float, len(prices))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(prices); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += prices[j]
		}
		out[i] = null.FloatFrom(sum / float64(window))
	}
	return out
}

// EMA computes an exponential moving average with smoothing factor
// 2/(span+1), seeded with the first price. It has no warm-up gate.
func EMA(prices []float64, span int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}
