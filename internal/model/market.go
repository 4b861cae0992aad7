package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the wire format for trading dates.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidSeries marks a bar series that violates its shape invariants.
	ErrInvalidSeries = errors.New("invalid bar series")
	// ErrEmptySeries is returned for a series with no bars.
	ErrEmptySeries = fmt.Errorf("%w: empty series", ErrInvalidSeries)
)

// Bar is one trading day of OHLCV data for one ticker.
type Bar struct {
	Ticker string
	Date   time.Time // UTC midnight
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume null.Int // null when the source reports no trade
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series is an ascending, single-ticker sequence of daily bars.
type Series struct {
	Ticker string
	Bars   []Bar
}

// NewSeries builds a Series for ticker from bars without copying them.
func NewSeries(ticker string, bars []Bar) Series {
	return Series{Ticker: ticker, Bars: bars}
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Closes extracts the close prices in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Validate checks the series invariants: non-empty, a single ticker,
// strictly increasing dates and finite close prices.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return ErrEmptySeries
	}
	ticker := s.Ticker
	if ticker == "" {
		ticker = s.Bars[0].Ticker
	}
	for i, b := range s.Bars {
		if b.Ticker != ticker {
			return fmt.Errorf("%w: row %d has ticker %q, want %q", ErrInvalidSeries, i, b.Ticker, ticker)
		}
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return fmt.Errorf("%w: row %d (%s) has non-numeric close", ErrInvalidSeries, i, b.Date.Format(DateLayout))
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%w: row %d date %s does not follow %s", ErrInvalidSeries, i,
				b.Date.Format(DateLayout), s.Bars[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}
