package report

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"meridian/internal/backtest"
	"meridian/internal/data"
	"meridian/internal/domain"
)

func testResult() *backtest.Result {
	var mtm data.Series
	mtm.Append(time.Date(2013, 1, 2, 0, 0, 0, 0, time.UTC), 100000)
	mtm.Append(time.Date(2013, 1, 3, 0, 0, 0, 0, time.UTC), 100500)

	return &backtest.Result{
		Strategy:    "macd-cross",
		Start:       time.Date(2013, 1, 2, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2013, 1, 3, 0, 0, 0, 0, time.UTC),
		InitialCash: 100000,
		FinalCash:   90000,
		Trades: []domain.Trade{
			{Ticker: "aapl", Quantity: 100, Price: 100, TradeDate: time.Date(2013, 1, 3, 0, 0, 0, 0, time.UTC)},
		},
		MarkToMarket:     mtm,
		MaxDrawdown:      -0.05,
		Sharpe:           1.2,
		InformationRatio: math.NaN(),
		TotalReturnTrend: mtm.Rebase(100),
		Duration:         125 * time.Millisecond,
	}
}

func TestBuildPayload(t *testing.T) {
	p := Build(testResult())

	if p.Strategy != "macd-cross" || p.TradeCount != 1 {
		t.Errorf("payload = %s with %d trades, want macd-cross with 1", p.Strategy, p.TradeCount)
	}
	if p.Sharpe == nil || *p.Sharpe != 1.2 {
		t.Errorf("Sharpe = %v, want 1.2", p.Sharpe)
	}
	// NaN information ratio serializes as null.
	if p.InformationRatio != nil {
		t.Errorf("InformationRatio = %v, want nil for NaN", *p.InformationRatio)
	}
	if len(p.MarkToMarket) != 2 || p.MarkToMarket[0].Date != "2013-01-02" {
		t.Errorf("MarkToMarket = %v, want 2 samples from 2013-01-02", p.MarkToMarket)
	}
	if p.TotalReturnTrend[0].Value != 100 {
		t.Errorf("TotalReturnTrend starts at %v, want 100", p.TotalReturnTrend[0].Value)
	}
}

func TestWriterWritesValidJSON(t *testing.T) {
	w := NewWriter(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	path, err := w.Write(testResult())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if p.FinalCash != 90000 {
		t.Errorf("FinalCash = %v, want 90000", p.FinalCash)
	}
	if p.InformationRatio != nil {
		t.Error("InformationRatio should round-trip as null")
	}
}
