// Package builtins provides built-in strategy implementations that ship with
// the meridian platform.
package builtins

import (
	"math"

	"meridian/internal/domain"
	"meridian/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACDCross)(nil)

// MACD parameters: fast EWMA span, slow EWMA span, signal line span.
const (
	macdFastSpan   = 12
	macdSlowSpan   = 26
	macdSignalSpan = 9
)

// MACDCross trades the MACD line crossing its signal line. On every date it
// first liquidates existing positions, then buys a fixed clip when the MACD
// crosses above the signal line and sells a clip when it crosses below.
type MACDCross struct {
	clip float64 // shares per signal
}

// NewMACDCross creates a MACDCross trading the given number of shares per
// signal.
func NewMACDCross(clip float64) *MACDCross {
	return &MACDCross{clip: clip}
}

// Name returns "macd-cross".
func (s *MACDCross) Name() string { return "macd-cross" }

// LookbackWindow returns the business days of history needed to warm up the
// slow EWMA before the first crossing is trusted.
func (s *MACDCross) LookbackWindow() int { return 60 }

// Benchmark returns "" — the strategy declares no benchmark of its own.
func (s *MACDCross) Benchmark() string { return "" }

// RequiredFields returns nil; the strategy is price-only.
func (s *MACDCross) RequiredFields() []string { return nil }

// Digest liquidates current holdings and opens clips on tickers whose MACD
// crossed the signal line between the two most recent observations.
func (s *MACDCross) Digest(view strategy.View) ([]*domain.Order, error) {
	quantities := make(map[string]float64)
	for ticker, qty := range view.Positions {
		quantities[ticker] = -qty
	}

	for _, ticker := range view.Price.Columns() {
		col, err := view.Price.Column(ticker)
		if err != nil {
			return nil, err
		}
		prev, last, ok := macdHistogram(col.Values)
		if !ok {
			continue
		}
		if prev*last >= 0 {
			continue // no crossing
		}
		if last > 0 {
			quantities[ticker] += s.clip
		} else {
			quantities[ticker] -= s.clip
		}
	}

	var orders []*domain.Order
	for _, ticker := range sortedKeys(quantities) {
		if qty := quantities[ticker]; qty != 0 {
			orders = append(orders, domain.NewMarketOrder(ticker, qty, view.Date))
		}
	}
	return orders, nil
}

// macdHistogram returns the MACD-minus-signal histogram at the two most
// recent observations. ok is false when fewer than two non-NaN prices exist.
func macdHistogram(prices []float64) (prev, last float64, ok bool) {
	clean := prices[:0:0]
	for _, p := range prices {
		if !math.IsNaN(p) {
			clean = append(clean, p)
		}
	}
	if len(clean) < 2 {
		return 0, 0, false
	}

	fast := ewma(clean, macdFastSpan)
	slow := ewma(clean, macdSlowSpan)
	macd := make([]float64, len(clean))
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	signal := ewma(macd, macdSignalSpan)

	n := len(clean)
	return macd[n-2] - signal[n-2], macd[n-1] - signal[n-1], true
}

// ewma computes an exponentially weighted moving average with
// alpha = 2/(span+1), seeded at the first value.
func ewma(values []float64, span int) []float64 {
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}
