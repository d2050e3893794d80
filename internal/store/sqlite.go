package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"meridian/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ FundamentalStore = (*SQLiteStore)(nil)
var _ BenchmarkStore = (*SQLiteStore)(nil)

const dateLayout = "2006-01-02"

// SQLiteStore implements BarStore, FundamentalStore, and BenchmarkStore
// backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE TABLE IF NOT EXISTS fundamentals (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	field  TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (symbol, date, field)
);
CREATE TABLE IF NOT EXISTS benchmarks (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars upserts a batch of bars inside a single transaction.
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO bars
		(symbol, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.Date.Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("writing bar %s/%s: %w", b.Symbol, b.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// ReadBars returns bars for symbol within [start, end], ordered by date.
func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, date, open, high, low, close, volume
		FROM bars WHERE symbol = ? AND date >= ? AND date <= ? ORDER BY date`,
		symbol, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var date string
		if err := rows.Scan(&b.Symbol, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing bar date %q: %w", date, err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListSymbols returns all distinct bar symbols, sorted.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// ---------------------------------------------------------------------------
// FundamentalStore implementation
// ---------------------------------------------------------------------------

// WriteFundamentals upserts a batch of fundamental observations.
func (s *SQLiteStore) WriteFundamentals(ctx context.Context, records []FundamentalRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO fundamentals
		(symbol, date, field, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Symbol, r.Date.Format(dateLayout), r.Field, r.Value); err != nil {
			return fmt.Errorf("writing fundamental %s/%s/%s: %w", r.Symbol, r.Field, r.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// ReadFundamentals returns observations for the given symbols and fields
// with a period end date <= end, ordered by date.
func (s *SQLiteStore) ReadFundamentals(ctx context.Context, symbols, fields []string, end time.Time) ([]FundamentalRecord, error) {
	if len(symbols) == 0 || len(fields) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT symbol, date, field, value FROM fundamentals
		WHERE symbol IN (%s) AND field IN (%s) AND date <= ? ORDER BY date, symbol, field`,
		placeholders(len(symbols)), placeholders(len(fields)))

	args := make([]any, 0, len(symbols)+len(fields)+1)
	for _, sym := range symbols {
		args = append(args, sym)
	}
	for _, f := range fields {
		args = append(args, f)
	}
	args = append(args, end.Format(dateLayout))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FundamentalRecord
	for rows.Next() {
		var r FundamentalRecord
		var date string
		if err := rows.Scan(&r.Symbol, &date, &r.Field, &r.Value); err != nil {
			return nil, err
		}
		r.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing fundamental date %q: %w", date, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ---------------------------------------------------------------------------
// BenchmarkStore implementation
// ---------------------------------------------------------------------------

// WriteBenchmark upserts samples for the named benchmark.
func (s *SQLiteStore) WriteBenchmark(ctx context.Context, symbol string, samples []BenchmarkSample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO benchmarks
		(symbol, date, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sample := range samples {
		if _, err := stmt.ExecContext(ctx, symbol, sample.Date.Format(dateLayout), sample.Value); err != nil {
			return fmt.Errorf("writing benchmark %s/%s: %w", symbol, sample.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// ReadBenchmark returns samples for the named benchmark within [start, end].
func (s *SQLiteStore) ReadBenchmark(ctx context.Context, symbol string, start, end time.Time) ([]BenchmarkSample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, value FROM benchmarks
		WHERE symbol = ? AND date >= ? AND date <= ? ORDER BY date`,
		symbol, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []BenchmarkSample
	for rows.Next() {
		var sample BenchmarkSample
		var date string
		if err := rows.Scan(&date, &sample.Value); err != nil {
			return nil, err
		}
		sample.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing benchmark date %q: %w", date, err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
