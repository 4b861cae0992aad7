package recorder

import (
	"context"
	"errors"
	"time"

	"EquityPulse/internal/model"
)

// ErrNotFound is returned by readers when a ticker has no stored rows.
var ErrNotFound = errors.New("not found")

// RunRecord is one row of the ETL run history.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	Trigger     string    `json:"trigger"`
	Status      string    `json:"status"`
	RangeStart  time.Time `json:"range_start"`
	RangeEnd    time.Time `json:"range_end"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Tickers     int       `json:"tickers"`
	Failed      int       `json:"failed"`
	RowsWritten int       `json:"rows_written"`
	Note        string    `json:"note,omitempty"`
}

// TickerRange summarises the stored history of one ticker.
type TickerRange struct {
	Ticker string    `json:"ticker"`
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`
	Rows   int       `json:"rows"`
}

// Filter selects enriched rows for one ticker. Zero Start or End leaves
// that side unbounded; both bounds are inclusive.
type Filter struct {
	Ticker     string
	Start      time.Time
	End        time.Time
	Descending bool
}

// Recorder persists companies, prices and run history.
type Recorder interface {
	RecordCompany(ctx context.Context, c *model.Company) error
	RecordDailyPrices(ctx context.Context, bars []model.Bar) error
	RecordEnriched(ctx context.Context, es *model.EnrichedSeries) error
	RecordRun(ctx context.Context, run *RunRecord) error
	Close() error
}

// Reader serves stored data back to the dashboard.
type Reader interface {
	Tickers(ctx context.Context) ([]TickerRange, error)
	DateRange(ctx context.Context, ticker string) (first, last time.Time, err error)
	QueryEnriched(ctx context.Context, f Filter) ([]model.EnrichedRow, error)
	Companies(ctx context.Context) ([]model.Company, error)
	Runs(ctx context.Context, limit int) ([]RunRecord, error)
}
