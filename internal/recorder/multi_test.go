package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"EquityPulse/internal/model"
)

type countingRecorder struct {
	NoopRecorder
	calls int
	err   error
}

func (c *countingRecorder) RecordEnriched(context.Context, *model.EnrichedSeries) error {
	c.calls++
	return c.err
}

func TestMultiRecorder_AttemptsAll(t *testing.T) {
	boom := errors.New("boom")
	a := &countingRecorder{err: boom}
	b := &countingRecorder{}
	m := NewMultiRecorder(a, b, NewNoopRecorder())

	err := m.RecordEnriched(context.Background(), enriched("AAPL", 1, 1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.NoError(t, m.Close())
}
