// Package metrics provides the risk and performance calculations produced at
// the end of a backtest run: annualized Sharpe ratio, maximum drawdown, and
// information ratio.
//
// Each calculation accepts either a raw value series or a pre-computed
// return series, selected by an explicit isReturn flag. Raw series are
// converted to log returns (ln(v[t]/v[t-1])) first. Degenerate inputs (zero
// volatility, too few observations) yield NaN rather than an error.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultRiskFreeRate is the annual risk-free rate subtracted in the Sharpe
// numerator.
const DefaultRiskFreeRate = 0.03

// ErrBadPeriodicity is returned for periodicity strings that do not parse as
// <count><unit> with a unit of D, W, M, Q, or Y.
var ErrBadPeriodicity = errors.New("malformed periodicity")

// periodsPerYear maps a periodicity unit to the number of such periods in a
// year (252 trading days).
var periodsPerYear = map[byte]float64{
	'D': 252,
	'W': 52,
	'M': 12,
	'Q': 4,
	'Y': 1,
}

// Periodicity describes the sampling interval of a series, e.g. "1D" (daily)
// or "2W" (fortnightly).
type Periodicity struct {
	Count int
	Unit  byte
}

// ParsePeriodicity parses strings such as "1D", "1W", "2W", "1M", "1Q",
// "1Y". The unit is case-insensitive.
func ParsePeriodicity(s string) (Periodicity, error) {
	if len(s) < 2 {
		return Periodicity{}, fmt.Errorf("%w: %q", ErrBadPeriodicity, s)
	}
	unit := strings.ToUpper(s[len(s)-1:])[0]
	if _, ok := periodsPerYear[unit]; !ok {
		return Periodicity{}, fmt.Errorf("%w: unknown unit in %q", ErrBadPeriodicity, s)
	}
	count, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || count < 1 {
		return Periodicity{}, fmt.Errorf("%w: bad count in %q", ErrBadPeriodicity, s)
	}
	return Periodicity{Count: count, Unit: unit}, nil
}

// AnnualizationFactor returns the number of periods of this periodicity in a
// year.
func (p Periodicity) AnnualizationFactor() float64 {
	return periodsPerYear[p.Unit] / float64(p.Count)
}

// LogReturns converts a value series to log returns, discarding the
// undefined first element. The result has len(values)-1 entries.
func LogReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns[i-1] = math.Log(values[i] / values[i-1])
	}
	return returns
}

// Sharpe computes the annualized Sharpe ratio of a series sampled at the
// given periodicity. When the series has zero volatility the ratio is
// undefined and NaN is returned.
func Sharpe(series []float64, p Periodicity, isReturn bool) float64 {
	returns := series
	if !isReturn {
		returns = LogReturns(series)
	}
	if len(returns) < 2 {
		return math.NaN()
	}

	factor := p.AnnualizationFactor()
	annualizedReturn := math.Pow(1+mean(returns), factor) - 1
	volatility := stddev(returns) * math.Sqrt(factor)
	if volatility == 0 {
		return math.NaN()
	}
	return (annualizedReturn - DefaultRiskFreeRate) / volatility
}

// MaxDrawdown computes the most negative peak-to-trough decline of a value
// series as a fraction of the running maximum. The result is always <= 0,
// and exactly 0 for a monotonically non-decreasing series. A return series
// is first compounded into values seeded at 1.
func MaxDrawdown(series []float64, isReturn bool) float64 {
	values := series
	if isReturn {
		values = make([]float64, 0, len(series)+1)
		acc := 1.0
		values = append(values, acc)
		for _, r := range series {
			acc *= 1 + r
			values = append(values, acc)
		}
	}
	if len(values) == 0 {
		return 0
	}

	runningMax := values[0]
	worst := 0.0
	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		if dd := (v - runningMax) / runningMax; dd < worst {
			worst = dd
		}
	}
	return worst
}

// InformationRatio computes the annualized active return of a portfolio
// series over an aligned benchmark series, divided by the annualized active
// risk. Both series must have the same length. A zero tracking error yields
// NaN.
func InformationRatio(portfolio, benchmark []float64, p Periodicity, isReturn bool) float64 {
	if !isReturn {
		portfolio = LogReturns(portfolio)
		benchmark = LogReturns(benchmark)
	}
	if len(portfolio) != len(benchmark) || len(portfolio) < 2 {
		return math.NaN()
	}

	active := make([]float64, len(portfolio))
	for i := range portfolio {
		active[i] = portfolio[i] - benchmark[i]
	}

	factor := p.AnnualizationFactor()
	annualizedExcessReturn := math.Pow(1+mean(active), factor) - 1
	annualizedExcessRisk := stddev(active) * math.Sqrt(factor)
	if annualizedExcessRisk == 0 {
		return math.NaN()
	}
	return annualizedExcessReturn / annualizedExcessRisk
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
