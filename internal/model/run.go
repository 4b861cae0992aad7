package model

import "time"

// RunTrigger indicates what started an ETL run.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "SCHEDULED"
	TriggerStartup   RunTrigger = "STARTUP"
	TriggerManual    RunTrigger = "MANUAL"
)

// RunStatus is the aggregate outcome of an ETL run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// TickerResult reports what happened to one ticker during a run.
type TickerResult struct {
	Ticker       string
	Bars         int
	EnrichedRows int
	FirstDate    time.Time
	LastDate     time.Time
	LastClose    float64
	Err          error
}

// RunSummary is the outcome of one ETL run across all tickers.
type RunSummary struct {
	RunID      string
	Trigger    RunTrigger
	Start      time.Time // requested range start
	End        time.Time // requested range end
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TickerResult
}

// Failed returns the number of tickers that errored.
func (s *RunSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Status derives the run status from per-ticker results.
func (s *RunSummary) Status() RunStatus {
	failed := s.Failed()
	switch {
	case len(s.Results) == 0 || failed == len(s.Results):
		return RunFailed
	case failed > 0:
		return RunPartial
	default:
		return RunSuccess
	}
}
