package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"EquityPulse/internal/model"
)

// ClickHouseConfig addresses the analytics mirror.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

type chBatch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// chConn is the subset of driver.Conn the recorder needs.
type chConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(ctx context.Context, query string) (chBatch, error)
	Close() error
}

type driverConn struct{ conn driver.Conn }

func (d driverConn) Exec(ctx context.Context, query string, args ...any) error {
	return d.conn.Exec(ctx, query, args...)
}

func (d driverConn) PrepareBatch(ctx context.Context, query string) (chBatch, error) {
	return d.conn.PrepareBatch(ctx, query)
}

func (d driverConn) Close() error { return d.conn.Close() }

// ClickHouseRecorder mirrors prices, companies and runs into ClickHouse.
// ReplacingMergeTree tables keyed by (ticker, date) collapse re-loads, so
// there is no delete step.
type ClickHouseRecorder struct {
	conn chConn
	db   string
	log  *zap.Logger
	now  func() time.Time
}

// NewClickHouseRecorder connects, pings, and ensures the schema exists.
func NewClickHouseRecorder(ctx context.Context, cfg ClickHouseConfig, log *zap.Logger) (*ClickHouseRecorder, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	r := newClickHouseRecorder(driverConn{conn}, cfg.Database, log)
	if err := r.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse migrate: %w", err)
	}
	r.log.Info("clickhouse recorder opened", zap.String("addr", cfg.Addr), zap.String("database", cfg.Database))
	return r, nil
}

func newClickHouseRecorder(conn chConn, db string, log *zap.Logger) *ClickHouseRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClickHouseRecorder{conn: conn, db: db, log: log, now: time.Now}
}

func (r *ClickHouseRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, r.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.companies (
			ticker              LowCardinality(String),
			long_name           Nullable(String),
			sector              Nullable(String),
			industry            Nullable(String),
			country             Nullable(String),
			market_cap          Nullable(Int64),
			full_time_employees Nullable(Int64),
			website             Nullable(String),
			ingested_at         DateTime64(3)
		) ENGINE = ReplacingMergeTree(ingested_at) ORDER BY ticker`, r.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.daily_prices (
			ticker      LowCardinality(String),
			date        Date,
			open        Float64,
			high        Float64,
			low         Float64,
			close       Float64,
			volume      Nullable(Int64),
			ingested_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(ingested_at) ORDER BY (ticker, date)`, r.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.daily_prices_adjusted (
			ticker         LowCardinality(String),
			date           Date,
			open           Float64,
			high           Float64,
			low            Float64,
			close          Float64,
			volume         Nullable(Int64),
			ma_5           Nullable(Float64),
			ma_63          Nullable(Float64),
			ma_126         Nullable(Float64),
			ma_252         Nullable(Float64),
			volatility_30d Nullable(Float64),
			macd           Nullable(Float64),
			rsi            Nullable(Float64),
			ingested_at    DateTime64(3)
		) ENGINE = ReplacingMergeTree(ingested_at) ORDER BY (ticker, date)`, r.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.etl_runs (
			run_id       String,
			run_trigger  LowCardinality(String),
			status       LowCardinality(String),
			range_start  Date,
			range_end    Date,
			started_at   DateTime,
			finished_at  DateTime,
			tickers      UInt32,
			failed       UInt32,
			rows_written UInt64,
			note         String
		) ENGINE = ReplacingMergeTree(finished_at) ORDER BY run_id`, r.db),
	}
	for _, s := range stmts {
		if err := r.conn.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// send appends rows to a fresh batch and ships it.
func (r *ClickHouseRecorder) send(ctx context.Context, table string, n int, row func(i int) []any) error {
	batch, err := r.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.%s", r.db, table))
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", table, err)
	}
	for i := 0; i < n; i++ {
		if err := batch.Append(row(i)...); err != nil {
			batch.Abort()
			return fmt.Errorf("append %s row %d: %w", table, i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send %s batch: %w", table, err)
	}
	r.log.Debug("clickhouse batch sent", zap.String("table", table), zap.Int("rows", n))
	return nil
}

func (r *ClickHouseRecorder) RecordCompany(ctx context.Context, c *model.Company) error {
	now := r.now()
	return r.send(ctx, "companies", 1, func(int) []any {
		return []any{
			c.Ticker, c.LongName.Ptr(), c.Sector.Ptr(), c.Industry.Ptr(), c.Country.Ptr(),
			c.MarketCap.Ptr(), c.FullTimeEmployees.Ptr(), c.Website.Ptr(), now,
		}
	})
}

func (r *ClickHouseRecorder) RecordDailyPrices(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	now := r.now()
	return r.send(ctx, "daily_prices", len(bars), func(i int) []any {
		b := bars[i]
		return []any{b.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume.Ptr(), now}
	})
}

func (r *ClickHouseRecorder) RecordEnriched(ctx context.Context, es *model.EnrichedSeries) error {
	if es == nil || es.Len() == 0 {
		return nil
	}
	now := r.now()
	return r.send(ctx, "daily_prices_adjusted", es.Len(), func(i int) []any {
		row := es.Rows[i]
		return []any{
			row.Ticker, row.Date, row.Open, row.High, row.Low, row.Close, row.Volume.Ptr(),
			row.MA5.Ptr(), row.MA63.Ptr(), row.MA126.Ptr(), row.MA252.Ptr(),
			row.Volatility30d.Ptr(), row.MACD.Ptr(), row.RSI.Ptr(), now,
		}
	})
}

func (r *ClickHouseRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	return r.send(ctx, "etl_runs", 1, func(int) []any {
		return []any{
			run.RunID, run.Trigger, run.Status, run.RangeStart, run.RangeEnd,
			run.StartedAt, run.FinishedAt,
			uint32(run.Tickers), uint32(run.Failed), uint64(run.RowsWritten), run.Note,
		}
	})
}

func (r *ClickHouseRecorder) Close() error {
	r.log.Info("closing clickhouse recorder")
	return r.conn.Close()
}
