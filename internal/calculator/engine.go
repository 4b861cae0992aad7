package calculator

import (
	"fmt"

	"EquityPulse/internal/model"
)

// Indicator windows used by Compute.
const (
	VolatilityWindow = 30
	RSIWindow        = 14
	MACDFast         = 12
	MACDSlow         = 26
)

// MAWindows are the simple moving average lengths, in trading days.
var MAWindows = [4]int{5, 63, 126, 252}

// Compute derives the enriched indicator table of a single-ticker series.
// It is pure: the input is not modified or retained and every call returns
// freshly allocated output. Warm-up and 0/0 cells carry no value; the only
// error is a malformed series.
func Compute(series model.Series) (*model.EnrichedSeries, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("compute %s: %w", series.Ticker, err)
	}

	closes := series.Closes()
	ma5 := SMA(closes, MAWindows[0])
	ma63 := SMA(closes, MAWindows[1])
	ma126 := SMA(closes, MAWindows[2])
	ma252 := SMA(closes, MAWindows[3])
	vol := Volatility(closes, VolatilityWindow)
	macd := MACD(closes, MACDFast, MACDSlow)
	rsi := RSI(closes, RSIWindow)

	ticker := series.Ticker
	if ticker == "" {
		ticker = series.Bars[0].Ticker
	}
	rows := make([]model.EnrichedRow, len(series.Bars))
	for i, b := range series.Bars {
		rows[i] = model.EnrichedRow{
			Ticker:        b.Ticker,
			Date:          b.Date,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        b.Volume,
			MA5:           ma5[i],
			MA63:          ma63[i],
			MA126:         ma126[i],
			MA252:         ma252[i],
			Volatility30d: vol[i],
			MACD:          macd[i],
			RSI:           rsi[i],
		}
	}

	return &model.EnrichedSeries{
		Ticker: ticker,
		Rows:   rows,
		Returns: model.Returns{
			Daily:      DailyReturns(closes),
			Cumulative: CumulativeReturns(closes),
		},
	}, nil
}
