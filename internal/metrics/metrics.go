package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the ETL and dashboard.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: status
	TickerFailures  *prometheus.CounterVec // labels: ticker
	RowsWritten     *prometheus.CounterVec // labels: table
	ComputeDuration prometheus.Histogram
	FetchDuration   *prometheus.HistogramVec // labels: source
	HTTPRequests    *prometheus.CounterVec   // labels: route, code
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which suits tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitypulse_etl_runs_total",
			Help: "ETL runs by final status",
		}, []string{"status"}),
		TickerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitypulse_ticker_failures_total",
			Help: "Tickers that failed during an ETL run",
		}, []string{"ticker"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitypulse_rows_written_total",
			Help: "Rows written per table",
		}, []string{"table"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "equitypulse_compute_duration_seconds",
			Help:    "Indicator engine latency per ticker",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "equitypulse_fetch_duration_seconds",
			Help:    "Price history fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitypulse_http_requests_total",
			Help: "Dashboard API requests",
		}, []string{"route", "code"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RunsTotal,
			m.TickerFailures,
			m.RowsWritten,
			m.ComputeDuration,
			m.FetchDuration,
			m.HTTPRequests,
		)
	}
	return m
}
