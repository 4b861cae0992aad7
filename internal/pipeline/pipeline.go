// Package pipeline runs the daily ETL: fetch, compute and store every
// configured ticker, then record the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"EquityPulse/internal/collector"
	"EquityPulse/internal/metrics"
	"EquityPulse/internal/model"
	"EquityPulse/internal/recorder"
	"EquityPulse/internal/trace"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("etl run already in progress")

// Options configures a Pipeline.
type Options struct {
	Tickers      []string
	LookbackDays int
	Workers      int
}

// Pipeline wires a collector to a recorder for a fixed ticker universe.
type Pipeline struct {
	collector *collector.Collector
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	log       *zap.Logger
	opts      Options

	running atomic.Bool
	now     func() time.Time
}

// New creates a Pipeline. Nil metrics or logger get safe defaults.
func New(col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics, log *zap.Logger, opts Options) *Pipeline {
	if m == nil {
		m = metrics.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		collector: col,
		recorder:  rec,
		metrics:   m,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// Window returns the inclusive date range a run started at now covers.
func (p *Pipeline) Window(now time.Time) (start, end time.Time) {
	end = model.Day(now)
	return end.AddDate(0, 0, -p.opts.LookbackDays), end
}

// Run executes one ETL pass over every ticker. A failing ticker is
// recorded in the summary and does not stop the others; the returned
// error is reserved for cancellation and overlapping runs.
func (p *Pipeline) Run(ctx context.Context, trigger model.RunTrigger) (*model.RunSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	started := p.now()
	start, end := p.Window(started)
	summary := &model.RunSummary{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		Start:     start,
		End:       end,
		StartedAt: started,
		Results:   make([]model.TickerResult, len(p.opts.Tickers)),
	}
	log := p.log.With(zap.String("run_id", summary.RunID), zap.String("trigger", string(trigger)))
	log.Info("etl run started",
		zap.Strings("tickers", p.opts.Tickers),
		zap.String("start", start.Format(model.DateLayout)),
		zap.String("end", end.Format(model.DateLayout)),
	)

	ctx, span := trace.StartSpan(ctx, "etl.run")
	span.SetAttributes(attribute.String("run_id", summary.RunID), attribute.Int("tickers", len(p.opts.Tickers)))
	defer span.End()

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, ticker := range p.opts.Tickers {
		g.Go(func() error {
			summary.Results[i] = p.processTicker(ctx, log, ticker, start, end)
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = p.now()
	status := summary.Status()
	p.metrics.RunsTotal.WithLabelValues(string(status)).Inc()

	rows := 0
	for _, r := range summary.Results {
		rows += r.Bars + r.EnrichedRows
	}
	if err := p.recorder.RecordRun(ctx, &recorder.RunRecord{
		RunID:       summary.RunID,
		Trigger:     string(trigger),
		Status:      string(status),
		RangeStart:  start,
		RangeEnd:    end,
		StartedAt:   summary.StartedAt,
		FinishedAt:  summary.FinishedAt,
		Tickers:     len(summary.Results),
		Failed:      summary.Failed(),
		RowsWritten: rows,
	}); err != nil {
		log.Error("record run", zap.Error(err))
	}

	log.Info("etl run finished",
		zap.String("status", string(status)),
		zap.Int("failed", summary.Failed()),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	if status != model.RunSuccess {
		span.SetStatus(codes.Error, string(status))
	}
	return summary, ctx.Err()
}

func (p *Pipeline) processTicker(ctx context.Context, log *zap.Logger, ticker string, start, end time.Time) model.TickerResult {
	ctx, span := trace.StartSpan(ctx, "etl.ticker")
	span.SetAttributes(attribute.String("ticker", ticker))
	defer span.End()

	res := model.TickerResult{Ticker: ticker}
	if err := p.loadTicker(ctx, ticker, start, end, &res); err != nil {
		res.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.TickerFailures.WithLabelValues(ticker).Inc()
		log.Error("ticker failed", zap.String("ticker", ticker), zap.Error(err))
		return res
	}
	log.Info("ticker loaded",
		zap.String("ticker", ticker),
		zap.Int("rows", res.EnrichedRows),
		zap.Float64("last_close", res.LastClose),
	)
	return res
}

func (p *Pipeline) loadTicker(ctx context.Context, ticker string, start, end time.Time, res *model.TickerResult) error {
	data, err := p.collector.Collect(ctx, ticker, start, end)
	if err != nil {
		return err
	}

	if data.Company != nil {
		if err := p.recorder.RecordCompany(ctx, data.Company); err != nil {
			return fmt.Errorf("store company: %w", err)
		}
		p.metrics.RowsWritten.WithLabelValues("companies").Inc()
	}
	if err := p.recorder.RecordDailyPrices(ctx, data.Series.Bars); err != nil {
		return fmt.Errorf("store daily prices: %w", err)
	}
	p.metrics.RowsWritten.WithLabelValues("daily_prices").Add(float64(data.Series.Len()))
	if err := p.recorder.RecordEnriched(ctx, data.Enriched); err != nil {
		return fmt.Errorf("store enriched prices: %w", err)
	}
	p.metrics.RowsWritten.WithLabelValues("daily_prices_adjusted").Add(float64(data.Enriched.Len()))

	bars := data.Series.Bars
	res.Bars = len(bars)
	res.EnrichedRows = data.Enriched.Len()
	res.FirstDate = bars[0].Date
	res.LastDate = bars[len(bars)-1].Date
	res.LastClose = bars[len(bars)-1].Close
	return nil
}
