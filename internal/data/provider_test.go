package data

import (
	"context"
	"errors"
	"testing"
)

func newTestProvider() *StaticProvider {
	b := NewFrameBuilder()
	for i, close := range []float64{100, 101, 102, 103, 104} {
		b.Add("aapl", date(2013, 1, 2+i), close)
	}
	table := FundamentalTable{
		{Date: date(2012, 9, 30), Ticker: "aapl", Fields: map[string]float64{"ff_mkt_val": 480e9}},
		{Date: date(2012, 12, 31), Ticker: "aapl", Fields: map[string]float64{"ff_mkt_val": 500e9}},
	}
	return NewStaticProvider(b.Build(), table, Series{})
}

func TestStaticProviderSetupValidation(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	err := p.Setup(ctx, Request{Universe: []string{"aapl"}})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	err = p.Setup(ctx, Request{Universe: []string{"aapl", "tsla"}})
	if !errors.Is(err, ErrMissingData) {
		t.Errorf("Setup with unknown ticker error = %v, want ErrMissingData", err)
	}

	err = p.Setup(ctx, Request{Universe: []string{"aapl"}, Benchmark: "sp500"})
	if !errors.Is(err, ErrMissingData) {
		t.Errorf("Setup with absent benchmark error = %v, want ErrMissingData", err)
	}
}

func TestStaticProviderFundamentalDelay(t *testing.T) {
	p := newTestProvider()

	// With the default 90 day lag the 2012-12-31 period is not yet public on
	// 2013-01-04; only the September period is.
	snap := p.MarketData(date(2013, 1, 4))
	if len(snap.Fundamental) != 1 {
		t.Fatalf("visible fundamentals = %d rows, want 1 under the publication lag", len(snap.Fundamental))
	}
	if !snap.Fundamental[0].Date.Equal(date(2012, 9, 30)) {
		t.Errorf("visible period = %v, want 2012-09-30", snap.Fundamental[0].Date)
	}

	// Past the lag the December period appears.
	snap = p.MarketData(date(2013, 4, 15))
	if len(snap.Fundamental) != 2 {
		t.Errorf("visible fundamentals = %d rows, want 2 once published", len(snap.Fundamental))
	}
	if v, ok := snap.Fundamental.Latest("aapl", "ff_mkt_val", date(2013, 4, 15)); !ok || v != 500e9 {
		t.Errorf("Latest ff_mkt_val = %v, %v, want 500e9, true", v, ok)
	}

	// Shortening the lag moves the visibility boundary.
	p.SetFundamentalDelay(0)
	snap = p.MarketData(date(2013, 1, 4))
	if len(snap.Fundamental) != 2 {
		t.Errorf("visible fundamentals with zero delay = %d rows, want 2", len(snap.Fundamental))
	}
}

func TestStaticProviderNoFutureLeak(t *testing.T) {
	p := newTestProvider()

	snap := p.MarketData(date(2013, 1, 3))
	if snap.Price.Len() != 2 {
		t.Errorf("price rows as of 2013-01-03 = %d, want 2", snap.Price.Len())
	}
	if _, ok := snap.Price.Value("aapl", date(2013, 1, 4)); ok {
		t.Error("future price visible in snapshot")
	}

	prices := p.PricesFor(date(2013, 1, 3))
	if prices["aapl"] != 101 {
		t.Errorf("PricesFor(2013-01-03)[aapl] = %v, want 101", prices["aapl"])
	}
}

func TestStaticProviderPriceFor(t *testing.T) {
	p := newTestProvider()

	if v, ok := p.PriceFor("aapl", date(2013, 1, 2)); !ok || v != 100 {
		t.Errorf("PriceFor(aapl, 2013-01-02) = %v, %v, want 100, true", v, ok)
	}
	// A weekend-style gap: date not in the index.
	if _, ok := p.PriceFor("aapl", date(2013, 1, 12)); ok {
		t.Error("PriceFor on an absent date should not be ok")
	}
}
