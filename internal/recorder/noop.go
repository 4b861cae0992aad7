package recorder

import (
	"context"

	"EquityPulse/internal/model"
)

// NoopRecorder is a no-op implementation used when no store is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCompany(context.Context, *model.Company) error         { return nil }
func (n *NoopRecorder) RecordDailyPrices(context.Context, []model.Bar) error        { return nil }
func (n *NoopRecorder) RecordEnriched(context.Context, *model.EnrichedSeries) error { return nil }
func (n *NoopRecorder) RecordRun(context.Context, *RunRecord) error                 { return nil }
func (n *NoopRecorder) Close() error                                              { return nil }
