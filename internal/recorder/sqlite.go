package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"EquityPulse/internal/model"
)

// SQLiteRecorder persists prices, companies and run history to a SQLite
// database and reads them back for the dashboard.
type SQLiteRecorder struct {
	db      *sql.DB
	mu      sync.Mutex
	replace bool
	log     *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations. With replace set, a ticker's stored price rows are replaced
// on every write instead of appended to.
func NewSQLiteRecorder(dbPath string, replace bool, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL mode so the dashboard can read while the ETL writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, replace: replace, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath), zap.Bool("replace", replace))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker              TEXT NOT NULL UNIQUE,
			long_name           TEXT,
			sector              TEXT,
			industry            TEXT,
			country             TEXT,
			market_cap          INTEGER,
			full_time_employees INTEGER,
			website             TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS daily_prices (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_prices_ticker_date ON daily_prices(ticker, date)`,

		`CREATE TABLE IF NOT EXISTS daily_prices_adjusted (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker         TEXT NOT NULL,
			date           TEXT NOT NULL,
			open           REAL,
			high           REAL,
			low            REAL,
			close          REAL,
			volume         INTEGER,
			ma_5           REAL,
			ma_63          REAL,
			ma_126         REAL,
			ma_252         REAL,
			volatility_30d REAL,
			macd           REAL,
			rsi            REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_adjusted_ticker_date ON daily_prices_adjusted(ticker, date)`,

		`CREATE TABLE IF NOT EXISTS etl_runs (
			run_id       TEXT PRIMARY KEY,
			run_trigger  TEXT NOT NULL,
			status       TEXT NOT NULL,
			range_start  TEXT,
			range_end    TEXT,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			tickers      INTEGER,
			failed       INTEGER,
			rows_written INTEGER,
			note         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_etl_runs_started ON etl_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCompany(ctx context.Context, c *model.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO companies
		(ticker, long_name, sector, industry, country, market_cap, full_time_employees, website)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(ticker) DO UPDATE SET
			long_name=excluded.long_name, sector=excluded.sector, industry=excluded.industry,
			country=excluded.country, market_cap=excluded.market_cap,
			full_time_employees=excluded.full_time_employees, website=excluded.website`,
		c.Ticker, c.LongName, c.Sector, c.Industry, c.Country,
		c.MarketCap, c.FullTimeEmployees, c.Website,
	)
	if err != nil {
		return fmt.Errorf("record company %s: %w", c.Ticker, err)
	}
	return nil
}

// withTx runs fn in a transaction that first clears the given tickers
// from table when replacing.
func (r *SQLiteRecorder) withTx(ctx context.Context, table string, tickers []string, fn func(*sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if r.replace {
		for _, t := range tickers {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE ticker = ?", t); err != nil {
				return fmt.Errorf("clear %s %s: %w", table, t, err)
			}
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func distinctTickers(bars []model.Bar) []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range bars {
		if !seen[b.Ticker] {
			seen[b.Ticker] = true
			out = append(out, b.Ticker)
		}
	}
	return out
}

func (r *SQLiteRecorder) RecordDailyPrices(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	return r.withTx(ctx, "daily_prices", distinctTickers(bars), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO daily_prices
			(ticker, date, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, b := range bars {
			if _, err := stmt.ExecContext(ctx, b.Ticker, b.Date.Format(model.DateLayout),
				b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
				return fmt.Errorf("insert daily price %s %s: %w", b.Ticker, b.Date.Format(model.DateLayout), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordEnriched(ctx context.Context, es *model.EnrichedSeries) error {
	if es == nil || es.Len() == 0 {
		return nil
	}
	return r.withTx(ctx, "daily_prices_adjusted", []string{es.Ticker}, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO daily_prices_adjusted
			(`+strings.Join(model.EnrichedColumns, ", ")+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range es.Rows {
			if _, err := stmt.ExecContext(ctx,
				row.Ticker, row.Date.Format(model.DateLayout),
				row.Open, row.High, row.Low, row.Close, row.Volume,
				row.MA5, row.MA63, row.MA126, row.MA252,
				row.Volatility30d, row.MACD, row.RSI,
			); err != nil {
				return fmt.Errorf("insert enriched %s %s: %w", row.Ticker, row.Date.Format(model.DateLayout), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO etl_runs
		(run_id, run_trigger, status, range_start, range_end, started_at, finished_at,
		 tickers, failed, rows_written, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Trigger, run.Status,
		run.RangeStart.Format(model.DateLayout), run.RangeEnd.Format(model.DateLayout),
		run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Tickers, run.Failed, run.RowsWritten, run.Note,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}

func (r *SQLiteRecorder) Tickers(ctx context.Context) ([]TickerRange, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ticker, MIN(date), MAX(date), COUNT(*)
		FROM daily_prices_adjusted GROUP BY ticker ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var out []TickerRange
	for rows.Next() {
		var tr TickerRange
		var first, last string
		if err := rows.Scan(&tr.Ticker, &first, &last, &tr.Rows); err != nil {
			return nil, err
		}
		if tr.First, err = parseDay(first); err != nil {
			return nil, err
		}
		if tr.Last, err = parseDay(last); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) DateRange(ctx context.Context, ticker string) (time.Time, time.Time, error) {
	var first, last null.String
	err := r.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date)
		FROM daily_prices_adjusted WHERE ticker = ?`, ticker).Scan(&first, &last)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query date range %s: %w", ticker, err)
	}
	if !first.Valid || !last.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("ticker %s: %w", ticker, ErrNotFound)
	}
	from, err := parseDay(first.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDay(last.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (r *SQLiteRecorder) QueryEnriched(ctx context.Context, f Filter) ([]model.EnrichedRow, error) {
	q := `SELECT ` + strings.Join(model.EnrichedColumns, ", ") +
		` FROM daily_prices_adjusted WHERE ticker = ?`
	args := []any{f.Ticker}
	if !f.Start.IsZero() {
		q += ` AND date >= ?`
		args = append(args, f.Start.Format(model.DateLayout))
	}
	if !f.End.IsZero() {
		q += ` AND date <= ?`
		args = append(args, f.End.Format(model.DateLayout))
	}
	if f.Descending {
		q += ` ORDER BY date DESC, id DESC`
	} else {
		q += ` ORDER BY date ASC, id ASC`
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query enriched %s: %w", f.Ticker, err)
	}
	defer rows.Close()

	out := []model.EnrichedRow{}
	for rows.Next() {
		var row model.EnrichedRow
		var date string
		var open, high, low, closePrice null.Float
		if err := rows.Scan(
			&row.Ticker, &date, &open, &high, &low, &closePrice, &row.Volume,
			&row.MA5, &row.MA63, &row.MA126, &row.MA252,
			&row.Volatility30d, &row.MACD, &row.RSI,
		); err != nil {
			return nil, err
		}
		if row.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		row.Open, row.High, row.Low, row.Close = open.Float64, high.Float64, low.Float64, closePrice.Float64
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Companies(ctx context.Context) ([]model.Company, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ticker, long_name, sector, industry, country,
		market_cap, full_time_employees, website FROM companies ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	out := []model.Company{}
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.Ticker, &c.LongName, &c.Sector, &c.Industry, &c.Country,
			&c.MarketCap, &c.FullTimeEmployees, &c.Website); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Runs returns the most recent ETL runs, newest first.
func (r *SQLiteRecorder) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, run_trigger, status, range_start, range_end,
		started_at, finished_at, tickers, failed, rows_written, note
		FROM etl_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []RunRecord{}
	for rows.Next() {
		var run RunRecord
		var rangeStart, rangeEnd string
		var started, finished int64
		if err := rows.Scan(&run.RunID, &run.Trigger, &run.Status, &rangeStart, &rangeEnd,
			&started, &finished, &run.Tickers, &run.Failed, &run.RowsWritten, &run.Note); err != nil {
			return nil, err
		}
		if run.RangeStart, err = parseDay(rangeStart); err != nil {
			return nil, err
		}
		if run.RangeEnd, err = parseDay(rangeEnd); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.FinishedAt = time.Unix(finished, 0).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
