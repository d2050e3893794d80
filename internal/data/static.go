package data

import (
	"context"
	"fmt"
	"time"
)

// Compile-time interface check.
var _ Provider = (*StaticProvider)(nil)

// StaticProvider serves pre-loaded in-memory data. It backs tests and runs
// where the caller has already assembled the frames (the "data passed in
// directly" path).
type StaticProvider struct {
	price       *Frame
	fundamental FundamentalTable
	benchmark   Series
	delayDays   int
}

// NewStaticProvider creates a provider over an assembled price frame.
// fundamental and benchmark may be nil/empty.
func NewStaticProvider(price *Frame, fundamental FundamentalTable, benchmark Series) *StaticProvider {
	fundamental.Sort()
	return &StaticProvider{
		price:       price,
		fundamental: fundamental,
		benchmark:   benchmark,
		delayDays:   DefaultFundamentalDelayDays,
	}
}

// SetFundamentalDelay overrides the publication delay, in calendar days.
func (p *StaticProvider) SetFundamentalDelay(days int) { p.delayDays = days }

// Setup validates that the pre-loaded data covers the request.
func (p *StaticProvider) Setup(_ context.Context, req Request) error {
	if p.price == nil || p.price.Len() == 0 {
		return fmt.Errorf("static provider has no price data: %w", ErrMissingData)
	}
	have := make(map[string]bool, len(p.price.Columns()))
	for _, c := range p.price.Columns() {
		have[c] = true
	}
	for _, ticker := range req.Universe {
		if !have[ticker] {
			return fmt.Errorf("no price data for %s: %w", ticker, ErrMissingData)
		}
	}
	if req.Benchmark != "" && p.benchmark.Len() == 0 {
		return fmt.Errorf("no benchmark data for %s: %w", req.Benchmark, ErrMissingData)
	}
	return nil
}

// MarketData returns the point-in-time view as of the given date.
func (p *StaticProvider) MarketData(asOf time.Time) Snapshot {
	return Snapshot{
		Price:       p.price.VisibleAsOf(asOf),
		Fundamental: p.fundamental.VisibleAsOf(visibleFundamentalCutoff(asOf, p.delayDays)),
	}
}

// PriceFor returns the price for ticker on exactly the given date.
func (p *StaticProvider) PriceFor(ticker string, asOf time.Time) (float64, bool) {
	return p.price.Value(ticker, asOf)
}

// PricesFor returns the latest prices on or before the given date.
func (p *StaticProvider) PricesFor(asOf time.Time) map[string]float64 {
	prices := make(map[string]float64, len(p.price.Columns()))
	for _, ticker := range p.price.Columns() {
		if v, ok := p.price.LastValueAsOf(ticker, asOf); ok {
			prices[ticker] = v
		}
	}
	return prices
}

// PriceDates returns the date index of the price frame.
func (p *StaticProvider) PriceDates() []time.Time { return p.price.Dates() }

// Benchmark returns the pre-loaded benchmark series.
func (p *StaticProvider) Benchmark() Series { return p.benchmark }
