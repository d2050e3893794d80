package builtins

import (
	"sort"

	"meridian/internal/domain"
	"meridian/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*EqualWeightQuarterly)(nil)

// EqualWeightQuarterly rebalances to an equal dollar weight across every
// listed ticker on each quarter-end business date and holds in between.
type EqualWeightQuarterly struct {
	benchmark string
}

// NewEqualWeightQuarterly creates the strategy. benchmark may be "" to skip
// the comparison.
func NewEqualWeightQuarterly(benchmark string) *EqualWeightQuarterly {
	return &EqualWeightQuarterly{benchmark: benchmark}
}

// Name returns "equal-weight-quarterly".
func (s *EqualWeightQuarterly) Name() string { return "equal-weight-quarterly" }

// LookbackWindow returns 1; the strategy only needs the latest close.
func (s *EqualWeightQuarterly) LookbackWindow() int { return 1 }

// Benchmark returns the configured benchmark symbol.
func (s *EqualWeightQuarterly) Benchmark() string { return s.benchmark }

// RequiredFields returns nil; the strategy is price-only.
func (s *EqualWeightQuarterly) RequiredFields() []string { return nil }

// Digest emits rebalancing orders on quarter-end business dates. The target
// position value is the mark-to-market portfolio value split evenly across
// the tickers listed as of the current date.
func (s *EqualWeightQuarterly) Digest(view strategy.View) ([]*domain.Order, error) {
	if !view.Calendar.IsQuarterEndBusinessDate(view.Date) {
		return nil, nil
	}

	tickers := view.Price.Columns()
	if len(tickers) == 0 {
		return nil, nil
	}

	latest := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		price, ok := view.Price.LastValueAsOf(ticker, view.Date)
		if !ok {
			continue
		}
		latest[ticker] = price
	}

	value := view.Cash
	for ticker, qty := range view.Positions {
		value += qty * latest[ticker]
	}
	target := value / float64(len(latest))

	var orders []*domain.Order
	for _, ticker := range sortedKeys(latest) {
		delta := target/latest[ticker] - view.Positions.Get(ticker)
		if delta == 0 {
			continue
		}
		orders = append(orders, domain.NewMarketOrder(ticker, delta, view.Date))
	}
	return orders, nil
}

// sortedKeys returns the map's keys in ascending order for deterministic
// order emission.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
