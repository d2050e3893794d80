package data

import (
	"context"
	"errors"
	"time"
)

// ErrMissingData is returned by Setup when requested data cannot be loaded:
// no prices for the universe, or a required fundamental field with no
// observations.
var ErrMissingData = errors.New("required data is missing")

// DefaultFundamentalDelayDays is the conservative lag, in calendar days,
// between a fiscal period end and the date its figures are treated as
// publicly known.
const DefaultFundamentalDelayDays = 90

// Request describes the data a single backtest run needs. Start is already
// widened by the strategy's lookback buffer when the engine builds it.
type Request struct {
	Start     time.Time
	End       time.Time
	Universe  []string
	Fields    []string // required fundamental fields; empty for price-only strategies
	Benchmark string   // optional benchmark symbol
}

// Snapshot is the point-in-time view handed to a strategy: prices visible
// as of the current date and fundamentals visible under the publication
// lag.
type Snapshot struct {
	Price       *Frame
	Fundamental FundamentalTable
}

// Provider supplies market data to the engine. Setup is called exactly once
// per run, before the stepping loop; all later calls are answered from the
// loaded data with no further I/O.
type Provider interface {
	// Setup loads and caches price, fundamental, and benchmark data for the
	// request.
	Setup(ctx context.Context, req Request) error

	// MarketData returns the data visible as of the given date: prices up to
	// asOf, fundamentals up to asOf minus the publication delay.
	MarketData(asOf time.Time) Snapshot

	// PriceFor returns the price observed for ticker on exactly the given
	// date. ok is false when the ticker has no quote that day.
	PriceFor(ticker string, asOf time.Time) (float64, bool)

	// PricesFor returns the latest prices on or before the given date,
	// keyed by ticker. Tickers with no observation yet are absent.
	PricesFor(asOf time.Time) map[string]float64

	// PriceDates returns the full date index of the loaded price data, from
	// which the engine builds its business calendar.
	PriceDates() []time.Time

	// Benchmark returns the loaded benchmark series, empty when the request
	// declared none.
	Benchmark() Series
}

// visibleFundamentalCutoff applies the publication delay to an as-of date.
func visibleFundamentalCutoff(asOf time.Time, delayDays int) time.Time {
	return asOf.AddDate(0, 0, -delayDays)
}
