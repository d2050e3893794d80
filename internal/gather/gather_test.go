package gather

import (
	"context"
	"testing"
	"time"
)

func TestDailyBarGathererEmptyUniverse(t *testing.T) {
	g := NewDailyBarGatherer("key", "secret", "", nil, nil, DateRange{
		Start: time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2013, 12, 31, 0, 0, 0, 0, time.UTC),
	}, 100, 200)

	if err := g.Run(context.Background()); err == nil {
		t.Error("Run with empty universe returned nil error")
	}
}

func TestGathererNames(t *testing.T) {
	daily := NewDailyBarGatherer("key", "secret", "", nil, []string{"AAPL"}, DateRange{}, 100, 200)
	if daily.Name() != "daily-bars" {
		t.Errorf("daily Name = %q, want daily-bars", daily.Name())
	}
	bench := NewBenchmarkGatherer("key", "secret", "", nil, "sp500", "SPY", DateRange{}, 200)
	if bench.Name() != "benchmark" {
		t.Errorf("benchmark Name = %q, want benchmark", bench.Name())
	}
}
