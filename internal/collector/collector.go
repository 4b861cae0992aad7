package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"EquityPulse/internal/calculator"
	"EquityPulse/internal/metrics"
	"EquityPulse/internal/model"
)

// TickerData is everything collected for one ticker in one run.
type TickerData struct {
	Ticker   string
	Company  *model.Company // nil when metadata could not be fetched
	Series   model.Series
	Enriched *model.EnrichedSeries
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewCollector creates a new Collector. A nil m gets unregistered metrics.
func NewCollector(fetcher Fetcher, m *metrics.Metrics, log *zap.Logger) *Collector {
	if m == nil {
		m = metrics.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, Metrics: m, Log: log}
}

// Collect fetches ticker's history in [start, end] and computes all
// indicators. Company metadata is best-effort.
func (c *Collector) Collect(ctx context.Context, ticker string, start, end time.Time) (*TickerData, error) {
	log := c.Log.With(zap.String("ticker", ticker), zap.String("source", c.Fetcher.Name()))

	company, err := c.Fetcher.FetchCompany(ctx, ticker)
	if err != nil {
		log.Warn("company metadata unavailable", zap.Error(err))
		company = nil
	}

	began := time.Now()
	bars, err := c.Fetcher.FetchDailyBars(ctx, ticker, start, end)
	c.Metrics.FetchDuration.WithLabelValues(c.Fetcher.Name()).Observe(time.Since(began).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars %s: %w", ticker, err)
	}

	bars = clip(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch daily bars %s: %w", ticker, ErrNoData)
	}
	series := model.NewSeries(ticker, bars)
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("ingest %s: %w", ticker, err)
	}

	began = time.Now()
	enriched, err := calculator.Compute(series)
	c.Metrics.ComputeDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		return nil, err
	}

	log.Debug("collected",
		zap.Int("bars", series.Len()),
		zap.String("first", bars[0].Date.Format(model.DateLayout)),
		zap.String("last", bars[len(bars)-1].Date.Format(model.DateLayout)),
	)
	return &TickerData{Ticker: ticker, Company: company, Series: series, Enriched: enriched}, nil
}

// clip drops bars outside the inclusive [start, end] day range.
func clip(bars []model.Bar, start, end time.Time) []model.Bar {
	from, to := model.Day(start), model.Day(end)
	out := bars[:0:0]
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}
