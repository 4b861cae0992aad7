package calculator

import (
	"github.com/guregu/null/v6"
)

// MACD computes EMA(fast) - EMA(slow) of closes. Every row has a value,
// including the first, where both EMAs equal the seed close.
func MACD(closes []float64, fast, slow int) []null.Float {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	out := make([]null.Float, len(closes))
	for i := range closes {
		out[i] = null.FloatFrom(emaFast[i] - emaSlow[i])
	}
	return out
}
