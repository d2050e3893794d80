package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"meridian/internal/calendar"
	"meridian/internal/domain"
	"meridian/internal/store"
	"meridian/internal/util"
)

// ---------------------------------------------------------------------------
// Compile-time interface checks
// ---------------------------------------------------------------------------

var _ Gatherer = (*DailyBarGatherer)(nil)
var _ Gatherer = (*BenchmarkGatherer)(nil)

const (
	retryAttempts  = 3
	retryBaseDelay = 2 * time.Second
)

// DailyBarGatherer gathers daily OHLCV bars for an explicit universe of US
// equity symbols via the Alpaca market-data API and writes them to a
// BarStore.
type DailyBarGatherer struct {
	client    *marketdata.Client
	store     store.BarStore
	universe  []string
	rng       DateRange
	batchSize int
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer configured with the given
// Alpaca credentials, target store, universe, and rate-limit parameters.
func NewDailyBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore,
	universe []string, rng DateRange, batchSize, rateLimitPerMin int) *DailyBarGatherer {
	return &DailyBarGatherer{
		client:    newClient(apiKey, apiSecret, dataURL),
		store:     s,
		universe:  universe,
		rng:       rng,
		batchSize: batchSize,
		limiter:   util.NewRateLimiter(rateLimitPerMin),
		log:       slog.Default().With("gatherer", "daily-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches the universe's daily bars in batches and writes them to the
// store. Batches retry with backoff on transient API errors.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.universe) == 0 {
		return fmt.Errorf("daily-bars: empty universe")
	}

	started := time.Now()
	total := 0
	for i := 0; i < len(g.universe); i += g.batchSize {
		end := min(i+g.batchSize, len(g.universe))
		batch := g.universe[i:end]

		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		bars, err := g.fetchMultiBars(ctx, batch)
		if err != nil {
			return fmt.Errorf("fetching bars for batch %v: %w", batch, err)
		}
		if err := g.store.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing bars: %w", err)
		}

		total += len(bars)
		g.log.Info("batch done", "symbols", len(batch), "bars", len(bars))
	}

	g.log.Info("complete", "symbols", len(g.universe), "bars", total,
		"elapsed", time.Since(started).Round(time.Second))
	return nil
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API
// call, retrying on transient failures.
func (g *DailyBarGatherer) fetchMultiBars(ctx context.Context, symbols []string) ([]domain.Bar, error) {
	var multiBars map[string][]marketdata.Bar
	err := util.Retry(ctx, retryAttempts, retryBaseDelay, func() error {
		var err error
		multiBars, err = g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     g.rng.Start,
			End:       g.rng.End,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol: strings.ToLower(symbol),
				Date:   calendar.Normalize(ab.Timestamp.UTC()),
				Open:   ab.Open,
				High:   ab.High,
				Low:    ab.Low,
				Close:  ab.Close,
				Volume: int64(ab.Volume),
			})
		}
	}
	return bars, nil
}

// BenchmarkGatherer gathers a benchmark proxy's daily closes (e.g. an index
// ETF) into a BenchmarkStore under a configured benchmark name.
type BenchmarkGatherer struct {
	client  *marketdata.Client
	store   store.BenchmarkStore
	name    string // benchmark name in the store, e.g. "sp500"
	symbol  string // traded proxy symbol, e.g. "SPY"
	rng     DateRange
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewBenchmarkGatherer creates a BenchmarkGatherer storing the proxy
// symbol's closes under the given benchmark name.
func NewBenchmarkGatherer(apiKey, apiSecret, dataURL string, s store.BenchmarkStore,
	name, symbol string, rng DateRange, rateLimitPerMin int) *BenchmarkGatherer {
	return &BenchmarkGatherer{
		client:  newClient(apiKey, apiSecret, dataURL),
		store:   s,
		name:    name,
		symbol:  symbol,
		rng:     rng,
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("gatherer", "benchmark"),
	}
}

// Name returns the gatherer identifier.
func (g *BenchmarkGatherer) Name() string { return "benchmark" }

// Run fetches the proxy's daily bars and writes their closes as benchmark
// samples.
func (g *BenchmarkGatherer) Run(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	var alpacaBars []marketdata.Bar
	err := util.Retry(ctx, retryAttempts, retryBaseDelay, func() error {
		var err error
		alpacaBars, err = g.client.GetBars(g.symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     g.rng.Start,
			End:       g.rng.End,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("GetBars %s: %w", g.symbol, err)
	}

	samples := make([]store.BenchmarkSample, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		samples = append(samples, store.BenchmarkSample{
			Date:  calendar.Normalize(ab.Timestamp.UTC()),
			Value: ab.Close,
		})
	}
	if err := g.store.WriteBenchmark(ctx, g.name, samples); err != nil {
		return fmt.Errorf("writing benchmark %s: %w", g.name, err)
	}

	g.log.Info("complete", "benchmark", g.name, "proxy", g.symbol, "samples", len(samples))
	return nil
}

func newClient(apiKey, apiSecret, dataURL string) *marketdata.Client {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return marketdata.NewClient(opts)
}
