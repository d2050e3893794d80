package metrics

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestParsePeriodicity(t *testing.T) {
	p, err := ParsePeriodicity("1D")
	if err != nil {
		t.Fatalf("ParsePeriodicity(1D) returned error: %v", err)
	}
	if p.AnnualizationFactor() != 252 {
		t.Errorf("factor for 1D = %v, want 252", p.AnnualizationFactor())
	}

	p, err = ParsePeriodicity("2w")
	if err != nil {
		t.Fatalf("ParsePeriodicity(2w) returned error: %v", err)
	}
	if p.AnnualizationFactor() != 26 {
		t.Errorf("factor for 2w = %v, want 26", p.AnnualizationFactor())
	}
}

func TestParsePeriodicityMalformed(t *testing.T) {
	for _, s := range []string{"", "D", "1X", "0D", "xD", "-1W"} {
		if _, err := ParsePeriodicity(s); !errors.Is(err, ErrBadPeriodicity) {
			t.Errorf("ParsePeriodicity(%q) error = %v, want ErrBadPeriodicity", s, err)
		}
	}
}

func TestLogReturns(t *testing.T) {
	returns := LogReturns([]float64{100, 110, 99})
	if len(returns) != 2 {
		t.Fatalf("len(returns) = %d, want 2", len(returns))
	}
	if !almostEqual(returns[0], math.Log(1.1), 1e-12) {
		t.Errorf("returns[0] = %v, want ln(1.1)", returns[0])
	}
	if !almostEqual(returns[1], math.Log(0.9), 1e-12) {
		t.Errorf("returns[1] = %v, want ln(0.9)", returns[1])
	}
}

func TestSharpeAnnualReturns(t *testing.T) {
	// With a 1Y periodicity the annualization factor is 1, so the ratio is
	// simply (mean - riskfree) / stdev.
	p, _ := ParsePeriodicity("1Y")
	got := Sharpe([]float64{0.1, -0.05, 0.2}, p, true)

	if !almostEqual(got, 0.42385, 1e-4) {
		t.Errorf("Sharpe = %v, want 0.42385", got)
	}
}

func TestSharpeZeroVolatilityUndefined(t *testing.T) {
	p, _ := ParsePeriodicity("1D")

	// A constant value series has zero volatility: undefined, not an error.
	if got := Sharpe([]float64{100, 100, 100, 100}, p, false); !math.IsNaN(got) {
		t.Errorf("Sharpe of constant series = %v, want NaN", got)
	}
}

func TestSharpeTooShortUndefined(t *testing.T) {
	p, _ := ParsePeriodicity("1D")
	if got := Sharpe([]float64{100}, p, false); !math.IsNaN(got) {
		t.Errorf("Sharpe of one-point series = %v, want NaN", got)
	}
}

func TestMaxDrawdownMonotonic(t *testing.T) {
	if got := MaxDrawdown([]float64{100, 101, 105}, false); got != 0 {
		t.Errorf("MaxDrawdown of non-decreasing series = %v, want 0", got)
	}
}

func TestMaxDrawdownValues(t *testing.T) {
	got := MaxDrawdown([]float64{100, 110, 99, 121}, false)
	if !almostEqual(got, -0.1, 1e-12) {
		t.Errorf("MaxDrawdown = %v, want -0.1", got)
	}
	if got > 0 {
		t.Errorf("MaxDrawdown = %v, must be <= 0", got)
	}
}

func TestMaxDrawdownFromReturns(t *testing.T) {
	// Seeded at 1, the return series compounds to 1, 1.1, 0.55, 0.66.
	got := MaxDrawdown([]float64{0.1, -0.5, 0.2}, true)
	if !almostEqual(got, -0.5, 1e-12) {
		t.Errorf("MaxDrawdown = %v, want -0.5", got)
	}
}

func TestInformationRatio(t *testing.T) {
	p, _ := ParsePeriodicity("1Y")
	portfolio := []float64{0.1, 0.2, 0.15}
	benchmark := []float64{0.05, 0.1, 0.05}

	got := InformationRatio(portfolio, benchmark, p, true)
	if !almostEqual(got, 2.8868, 1e-4) {
		t.Errorf("InformationRatio = %v, want 2.8868", got)
	}
}

func TestInformationRatioZeroTrackingError(t *testing.T) {
	p, _ := ParsePeriodicity("1D")
	series := []float64{100, 102, 101, 103}

	if got := InformationRatio(series, series, p, false); !math.IsNaN(got) {
		t.Errorf("InformationRatio against itself = %v, want NaN", got)
	}
}
