package backtest

import (
	"time"

	"meridian/internal/data"
	"meridian/internal/domain"
)

// Result is the read-only outcome of a completed run: the trade history,
// the mark-to-market series, and the performance metrics. Sharpe is NaN for
// a zero-volatility run; InformationRatio is NaN when no benchmark was
// declared.
type Result struct {
	Strategy    string
	Start       time.Time
	End         time.Time
	InitialCash float64
	FinalCash   float64
	Positions   domain.Positions
	Trades      []domain.Trade

	MarkToMarket     data.Series
	MaxDrawdown      float64
	Sharpe           float64
	InformationRatio float64
	TotalReturnTrend data.Series
	BenchmarkTrend   data.Series

	Duration time.Duration
}
