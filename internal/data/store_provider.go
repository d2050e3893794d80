package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meridian/internal/store"
)

// Compile-time interface check.
var _ Provider = (*StoreProvider)(nil)

// StoreProvider assembles the backtest dataset from persistent stores at
// Setup time, then serves it from memory like StaticProvider. Assembled
// price frames are cached on disk when a FrameCache is configured.
type StoreProvider struct {
	bars  store.BarStore
	funds store.FundamentalStore // optional; required when Fields are requested
	bench store.BenchmarkStore   // optional; required when a Benchmark is requested
	cache *FrameCache            // optional
	log   *slog.Logger

	delayDays int
	loaded    *StaticProvider
}

// NewStoreProvider creates a provider over the given stores. funds, bench,
// and cache may be nil when the corresponding data is never requested.
func NewStoreProvider(bars store.BarStore, funds store.FundamentalStore, bench store.BenchmarkStore, cache *FrameCache, logger *slog.Logger) *StoreProvider {
	return &StoreProvider{
		bars:      bars,
		funds:     funds,
		bench:     bench,
		cache:     cache,
		log:       logger,
		delayDays: DefaultFundamentalDelayDays,
	}
}

// SetFundamentalDelay overrides the publication delay, in calendar days.
func (p *StoreProvider) SetFundamentalDelay(days int) { p.delayDays = days }

// Setup loads prices, fundamentals, and the benchmark for the request and
// holds them in memory for the run.
func (p *StoreProvider) Setup(ctx context.Context, req Request) error {
	price, err := p.loadPrices(ctx, req)
	if err != nil {
		return err
	}

	var table FundamentalTable
	if len(req.Fields) > 0 {
		table, err = p.loadFundamentals(ctx, req)
		if err != nil {
			return err
		}
	}

	var benchmark Series
	if req.Benchmark != "" {
		benchmark, err = p.loadBenchmark(ctx, req)
		if err != nil {
			return err
		}
	}

	p.loaded = NewStaticProvider(price, table, benchmark)
	p.loaded.SetFundamentalDelay(p.delayDays)
	return nil
}

// loadPrices assembles the forward-filled close price frame for the
// request's universe, consulting the cache first.
func (p *StoreProvider) loadPrices(ctx context.Context, req Request) (*Frame, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Load(req); ok {
			p.log.Info("using cached price data", "key", p.cache.Key(req))
			return cached, nil
		}
	}

	b := NewFrameBuilder()
	total := 0
	for _, ticker := range req.Universe {
		bars, err := p.bars.ReadBars(ctx, ticker, req.Start, req.End)
		if err != nil {
			return nil, fmt.Errorf("reading bars for %s: %w", ticker, err)
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("no price data for %s: %w", ticker, ErrMissingData)
		}
		for _, bar := range bars {
			b.Add(ticker, bar.Date, bar.Close)
		}
		total += len(bars)
	}

	frame := b.Build().ForwardFill().Round(2)
	p.log.Info("assembled price data", "tickers", len(req.Universe), "bars", total, "dates", frame.Len())

	if p.cache != nil {
		if err := p.cache.Save(req, frame); err != nil {
			p.log.Warn("caching price data failed", "error", err)
		}
	}
	return frame, nil
}

// loadFundamentals reads all observations for the requested fields up to
// the run's end date. Each required field must have at least one
// observation somewhere in the universe.
func (p *StoreProvider) loadFundamentals(ctx context.Context, req Request) (FundamentalTable, error) {
	if p.funds == nil {
		return nil, fmt.Errorf("fundamental fields %v requested without a fundamental store: %w", req.Fields, ErrMissingData)
	}

	records, err := p.funds.ReadFundamentals(ctx, req.Universe, req.Fields, req.End)
	if err != nil {
		return nil, fmt.Errorf("reading fundamentals: %w", err)
	}

	seen := make(map[string]bool, len(req.Fields))
	rowIndex := make(map[string]int)
	var table FundamentalTable
	for _, r := range records {
		key := r.Date.Format("2006-01-02") + "/" + r.Symbol
		i, ok := rowIndex[key]
		if !ok {
			i = len(table)
			table = append(table, FundamentalRow{
				Date:   r.Date,
				Ticker: r.Symbol,
				Fields: make(map[string]float64),
			})
			rowIndex[key] = i
		}
		table[i].Fields[r.Field] = r.Value
		seen[r.Field] = true
	}

	for _, field := range req.Fields {
		if !seen[field] {
			return nil, fmt.Errorf("no observations for fundamental field %s: %w", field, ErrMissingData)
		}
	}

	table.Sort()
	p.log.Info("loaded fundamental data", "fields", len(req.Fields), "rows", len(table))
	return table, nil
}

// loadBenchmark reads the benchmark series covering the run.
func (p *StoreProvider) loadBenchmark(ctx context.Context, req Request) (Series, error) {
	if p.bench == nil {
		return Series{}, fmt.Errorf("benchmark %s requested without a benchmark store: %w", req.Benchmark, ErrMissingData)
	}

	samples, err := p.bench.ReadBenchmark(ctx, req.Benchmark, req.Start, req.End)
	if err != nil {
		return Series{}, fmt.Errorf("reading benchmark %s: %w", req.Benchmark, err)
	}
	if len(samples) == 0 {
		return Series{}, fmt.Errorf("no benchmark data for %s: %w", req.Benchmark, ErrMissingData)
	}

	var s Series
	for _, sample := range samples {
		s.Append(sample.Date, sample.Value)
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Read path — delegated to the loaded in-memory data
// ---------------------------------------------------------------------------

// MarketData returns the point-in-time view as of the given date.
func (p *StoreProvider) MarketData(asOf time.Time) Snapshot { return p.loaded.MarketData(asOf) }

// PriceFor returns the price for ticker on exactly the given date.
func (p *StoreProvider) PriceFor(ticker string, asOf time.Time) (float64, bool) {
	return p.loaded.PriceFor(ticker, asOf)
}

// PricesFor returns the latest prices on or before the given date.
func (p *StoreProvider) PricesFor(asOf time.Time) map[string]float64 {
	return p.loaded.PricesFor(asOf)
}

// PriceDates returns the date index of the loaded price frame.
func (p *StoreProvider) PriceDates() []time.Time { return p.loaded.PriceDates() }

// Benchmark returns the loaded benchmark series.
func (p *StoreProvider) Benchmark() Series { return p.loaded.Benchmark() }
