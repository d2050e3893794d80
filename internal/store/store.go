// Package store defines storage interfaces for the historical data a
// backtest loads at setup: daily bars, fundamental observations, and
// benchmark series.
package store

import (
	"context"
	"time"

	"meridian/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// ordered ascending by date.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the store.
	ListSymbols(ctx context.Context) ([]string, error)
}

// FundamentalRecord is one (symbol, period end date, field) observation in
// long form.
type FundamentalRecord struct {
	Symbol string
	Date   time.Time // fiscal period end
	Field  string
	Value  float64
}

// FundamentalStore persists and retrieves fundamental field observations.
type FundamentalStore interface {
	// WriteFundamentals persists a batch of fundamental observations.
	WriteFundamentals(ctx context.Context, records []FundamentalRecord) error

	// ReadFundamentals returns observations for the given symbols and fields
	// with a period end date <= end, ordered ascending by date.
	ReadFundamentals(ctx context.Context, symbols, fields []string, end time.Time) ([]FundamentalRecord, error)
}

// BenchmarkSample is one daily benchmark index value.
type BenchmarkSample struct {
	Date  time.Time
	Value float64
}

// BenchmarkStore persists and retrieves benchmark index series.
type BenchmarkStore interface {
	// WriteBenchmark persists samples for the named benchmark.
	WriteBenchmark(ctx context.Context, symbol string, samples []BenchmarkSample) error

	// ReadBenchmark returns samples for the named benchmark within
	// [start, end], ordered ascending by date.
	ReadBenchmark(ctx context.Context, symbol string, start, end time.Time) ([]BenchmarkSample, error)
}
