package calculator

import (
	"github.com/guregu/null/v6"
)

// RSI computes the relative strength index from simple rolling means of
// gains and losses over the trailing window of close-to-close deltas.
// A cell has a value from index window onward. A zero average loss with a
// positive average gain yields 100; 0/0 yields no value.
func RSI(closes []float64, window int) []null.Float {
	out := make([]null.Float, len(closes))
	if window <= 0 || len(closes) <= window {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	for i := window; i < len(closes); i++ {
		var sumGain, sumLoss float64
		for j := i - window + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		avgGain := sumGain / float64(window)
		avgLoss := sumLoss / float64(window)
		rs := avgGain / avgLoss
		out[i] = cell(100.0 - 100.0/(1.0+rs))
	}
	return out
}
