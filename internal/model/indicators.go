package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// EnrichedColumns is the projected column set of the enriched price table.
// Daily and cumulative returns are computed but not part of it.
var EnrichedColumns = []string{
	"ticker", "date", "open", "high", "low", "close", "volume",
	"ma_5", "ma_63", "ma_126", "ma_252",
	"volatility_30d", "macd", "rsi",
}

// EnrichedRow is a bar plus its derived indicators. Invalid cells mean
// "no value" (warm-up not satisfied or 0/0).
type EnrichedRow struct {
	Ticker        string
	Date          time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        null.Int
	MA5           null.Float
	MA63          null.Float
	MA126         null.Float
	MA252         null.Float
	Volatility30d null.Float
	MACD          null.Float
	RSI           null.Float
}

// Metric returns the value of a numeric column by name.
func (r EnrichedRow) Metric(name string) (null.Float, bool) {
	switch name {
	case "open":
		return null.FloatFrom(r.Open), true
	case "high":
		return null.FloatFrom(r.High), true
	case "low":
		return null.FloatFrom(r.Low), true
	case "close":
		return null.FloatFrom(r.Close), true
	case "volume":
		return null.NewFloat(float64(r.Volume.Int64), r.Volume.Valid), true
	case "ma_5":
		return r.MA5, true
	case "ma_63":
		return r.MA63, true
	case "ma_126":
		return r.MA126, true
	case "ma_252":
		return r.MA252, true
	case "volatility_30d":
		return r.Volatility30d, true
	case "macd":
		return r.MACD, true
	case "rsi":
		return r.RSI, true
	}
	return null.Float{}, false
}

// Returns holds the intermediate return columns, aligned with the rows.
type Returns struct {
	Daily      []null.Float
	Cumulative []null.Float
}

// EnrichedSeries is the engine output for one ticker: one row per input bar.
type EnrichedSeries struct {
	Ticker  string
	Rows    []EnrichedRow
	Returns Returns
}

// Len returns the number of rows.
func (e *EnrichedSeries) Len() int { return len(e.Rows) }
