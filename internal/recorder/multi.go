package recorder

import (
	"context"
	"errors"

	"EquityPulse/internal/model"
)

// MultiRecorder fans every write out to several recorders. All of them
// are attempted; the errors are joined.
type MultiRecorder struct {
	recorders []Recorder
}

func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

func (m *MultiRecorder) each(fn func(Recorder) error) error {
	var errs []error
	for _, r := range m.recorders {
		if err := fn(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiRecorder) RecordCompany(ctx context.Context, c *model.Company) error {
	return m.each(func(r Recorder) error { return r.RecordCompany(ctx, c) })
}

func (m *MultiRecorder) RecordDailyPrices(ctx context.Context, bars []model.Bar) error {
	return m.each(func(r Recorder) error { return r.RecordDailyPrices(ctx, bars) })
}

func (m *MultiRecorder) RecordEnriched(ctx context.Context, es *model.EnrichedSeries) error {
	return m.each(func(r Recorder) error { return r.RecordEnriched(ctx, es) })
}

func (m *MultiRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	return m.each(func(r Recorder) error { return r.RecordRun(ctx, run) })
}

func (m *MultiRecorder) Close() error {
	return m.each(func(r Recorder) error { return r.Close() })
}
