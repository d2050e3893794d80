// Package backtest implements the day-stepping simulation engine: the order
// fill loop, the cash/position ledger, mark-to-market accounting, and the
// end-of-run performance metrics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"meridian/internal/calendar"
	"meridian/internal/data"
	"meridian/internal/domain"
	"meridian/internal/metrics"
	"meridian/internal/strategy"
)

// ErrConfig is returned for fatal run configuration problems: an empty
// universe, an end date before the start date, missing required data, or a
// run attempted on an engine that already completed.
var ErrConfig = errors.New("invalid backtest configuration")

// ErrUnsupportedOrder is returned when a limit order reaches fill
// resolution. Limit matching is out of scope; only market orders fill.
var ErrUnsupportedOrder = errors.New("unsupported order kind")

// mtmDecimals is the rounding applied to mark-to-market samples for
// reproducibility.
const mtmDecimals = 4

type runState int

const (
	stateUninitialized runState = iota
	stateRunning
	stateCompleted
)

// Params configures a single backtest run.
type Params struct {
	Universe    []string
	Start       time.Time
	End         time.Time
	InitialCash float64
}

// Engine replays a strategy against historical data one business day at a
// time. An Engine runs exactly once; a new run requires a new Engine.
type Engine struct {
	provider data.Provider
	log      *slog.Logger

	state    runState
	cal      *calendar.Calendar
	current  time.Time
	start    time.Time
	end      time.Time
	cash     float64
	initial  float64
	position domain.Positions

	pending []*domain.Order
	filled  []*domain.Order
	trades  []domain.Trade
	mtm     data.Series
}

// New creates an Engine reading market data from the given provider.
func New(provider data.Provider, logger *slog.Logger) *Engine {
	return &Engine{
		provider: provider,
		log:      logger,
		state:    stateUninitialized,
	}
}

// initialize validates the parameters, loads data wide enough to cover the
// strategy's lookback, builds the calendar from the price index, and resets
// the ledger.
func (e *Engine) initialize(ctx context.Context, strat strategy.Strategy, p Params) error {
	if e.state != stateUninitialized {
		return fmt.Errorf("engine has already run: %w", ErrConfig)
	}
	if len(p.Universe) == 0 {
		return fmt.Errorf("empty universe: %w", ErrConfig)
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("end date %s precedes start date %s: %w",
			p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"), ErrConfig)
	}

	universe := append([]string(nil), p.Universe...)
	sort.Strings(universe)

	e.start = calendar.Normalize(p.Start)
	e.end = calendar.Normalize(p.End)

	// Widen the data window so the strategy's first decision sees its full
	// lookback: business days scaled to calendar days plus a safety margin.
	buffer := strat.LookbackWindow()*7/5 + 20
	req := data.Request{
		Start:     e.start.AddDate(0, 0, -buffer),
		End:       e.end,
		Universe:  universe,
		Fields:    strat.RequiredFields(),
		Benchmark: strat.Benchmark(),
	}
	if err := e.provider.Setup(ctx, req); err != nil {
		return fmt.Errorf("setting up data provider: %w", err)
	}

	e.cal = calendar.New(e.provider.PriceDates())
	current, ok := e.cal.FirstOnOrAfter(e.start)
	if !ok {
		return fmt.Errorf("no business date on or after %s: %w", e.start.Format("2006-01-02"), ErrConfig)
	}
	e.current = current

	e.cash = p.InitialCash
	e.initial = p.InitialCash
	e.position = domain.Positions{}
	e.pending = nil
	e.filled = nil
	e.trades = nil
	e.mtm = data.Series{}
	e.state = stateRunning
	return nil
}

// Run executes the full backtest for the strategy and returns its Result.
// The run aborts with no partial result on configuration or strategy errors.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, p Params) (*Result, error) {
	started := time.Now()
	e.log.Info("starting backtest run", "strategy", strat.Name(),
		"start", p.Start.Format("2006-01-02"), "end", p.End.Format("2006-01-02"))

	if err := e.initialize(ctx, strat, p); err != nil {
		return nil, err
	}

	for !e.current.After(e.end) {
		if err := e.step(strat); err != nil {
			return nil, err
		}

		next, err := e.cal.NextBusinessDate(e.current)
		if err != nil {
			// The price data ends before end date; the run completes with
			// what it has.
			break
		}
		e.current = next
	}

	result := e.postRun(strat, time.Since(started))
	e.state = stateCompleted
	e.log.Info("completed backtest run", "strategy", strat.Name(),
		"filled", len(e.filled), "unfilled", len(e.pending), "duration", result.Duration)
	return result, nil
}

// step runs one business day: fill pending orders, mark the book to market,
// then let the strategy digest the visible data and enqueue new orders for
// the next day.
func (e *Engine) step(strat strategy.Strategy) error {
	if err := e.fillPending(); err != nil {
		return err
	}
	e.markToMarket()

	snapshot := e.provider.MarketData(e.current)
	view := strategy.View{
		Price:       snapshot.Price,
		Fundamental: snapshot.Fundamental,
		Calendar:    e.cal,
		Date:        e.current,
		Cash:        e.cash,
		Positions:   e.position.Clone(),
	}
	orders, err := strat.Digest(view)
	if err != nil {
		return fmt.Errorf("strategy %s digesting %s: %w", strat.Name(), e.current.Format("2006-01-02"), err)
	}
	e.pending = append(e.pending, orders...)
	return nil
}

// fillPending resolves pending market orders against the current date's
// prices. Orders whose ticker has no quote today stay pending and retry on
// the next business date.
func (e *Engine) fillPending() error {
	var unfilled []*domain.Order
	for _, order := range e.pending {
		if order.Kind != domain.OrderKindMarket {
			return fmt.Errorf("filling %s order for %s: %w", order.Kind, order.Ticker, ErrUnsupportedOrder)
		}
		price, ok := e.provider.PriceFor(order.Ticker, e.current)
		if !ok {
			unfilled = append(unfilled, order)
			continue
		}

		trade, err := order.Fill(price, e.current)
		if err != nil {
			return fmt.Errorf("filling order for %s: %w", order.Ticker, err)
		}
		e.trades = append(e.trades, trade)
		e.filled = append(e.filled, order)
		e.position.Add(order.Ticker, order.Quantity)
		e.cash -= trade.Price * trade.Quantity
	}
	e.pending = unfilled
	return nil
}

// markToMarket appends today's portfolio value: cash plus every position at
// its latest visible price.
func (e *Engine) markToMarket() {
	value := e.cash
	prices := e.provider.PricesFor(e.current)
	for ticker, qty := range e.position {
		value += prices[ticker] * qty
	}
	e.mtm.Append(e.current, roundTo(value, mtmDecimals))
}

// postRun computes the end-of-run metrics and assembles the Result. With a
// benchmark the portfolio and benchmark series are aligned on common dates,
// the information ratio is computed on them, and both trends are normalized
// to base 100 from their first aligned values.
func (e *Engine) postRun(strat strategy.Strategy, duration time.Duration) *Result {
	daily, _ := metrics.ParsePeriodicity("1D")

	result := &Result{
		Strategy:         strat.Name(),
		Start:            e.start,
		End:              e.end,
		InitialCash:      e.initial,
		FinalCash:        e.cash,
		Positions:        e.position.Clone(),
		Trades:           e.trades,
		MarkToMarket:     e.mtm,
		MaxDrawdown:      metrics.MaxDrawdown(e.mtm.Values, false),
		Sharpe:           metrics.Sharpe(e.mtm.Values, daily, false),
		InformationRatio: math.NaN(),
		Duration:         duration,
	}

	benchmark := e.provider.Benchmark()
	if strat.Benchmark() == "" || benchmark.Len() == 0 {
		result.TotalReturnTrend = e.mtm.Rebase(100)
		return result
	}

	aligned := data.AlignSeries(
		[]string{"benchmark", "portfolio"},
		[]data.Series{benchmark.Slice(e.start, e.end), e.mtm},
	)
	portfolio, err := aligned.Column("portfolio")
	if err != nil {
		e.log.Warn("benchmark alignment failed", "error", err)
		result.TotalReturnTrend = e.mtm.Rebase(100)
		return result
	}
	bench, _ := aligned.Column("benchmark")

	result.InformationRatio = metrics.InformationRatio(portfolio.Values, bench.Values, daily, false)
	result.TotalReturnTrend = portfolio.Rebase(100)
	result.BenchmarkTrend = bench.Rebase(100)
	return result
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
