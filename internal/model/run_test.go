package model

import (
	"errors"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestRunSummary_Status(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		results []TickerResult
		want    RunStatus
	}{
		{"no tickers", nil, RunFailed},
		{"all ok", []TickerResult{{Ticker: "A"}, {Ticker: "B"}}, RunSuccess},
		{"one failed", []TickerResult{{Ticker: "A"}, {Ticker: "B", Err: boom}}, RunPartial},
		{"all failed", []TickerResult{{Ticker: "A", Err: boom}}, RunFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &RunSummary{Results: tt.results}
			assert.Equal(t, tt.want, s.Status())
		})
	}
}

func TestEnrichedRow_Metric(t *testing.T) {
	row := EnrichedRow{Close: 10, Volume: null.IntFrom(5), RSI: null.FloatFrom(55)}

	v, ok := row.Metric("close")
	assert.True(t, ok)
	assert.Equal(t, null.FloatFrom(10), v)

	v, ok = row.Metric("volume")
	assert.True(t, ok)
	assert.Equal(t, null.FloatFrom(5), v)

	v, ok = row.Metric("ma_252")
	assert.True(t, ok)
	assert.False(t, v.Valid)

	_, ok = row.Metric("daily_return")
	assert.False(t, ok)
}

func TestMetricCatalog(t *testing.T) {
	for _, key := range DefaultMetrics {
		_, ok := LookupMetric(key)
		assert.True(t, ok, key)
	}
	for _, m := range MetricCatalog {
		_, ok := EnrichedRow{}.Metric(m.Key)
		assert.True(t, ok, m.Key)
	}
	assert.Contains(t, EnrichedColumns, "volatility_30d")
	assert.NotContains(t, EnrichedColumns, "daily_return")
	assert.NotContains(t, EnrichedColumns, "cumulative_return")
}
