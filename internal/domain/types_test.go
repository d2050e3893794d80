package domain

import (
	"errors"
	"testing"
	"time"
)

var day = time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNewMarketOrderCarriesNoPrice(t *testing.T) {
	o := NewMarketOrder("aapl", 10, day)

	if o.Kind != OrderKindMarket {
		t.Errorf("Kind = %q, want %q", o.Kind, OrderKindMarket)
	}
	if o.Status != OrderStatusPending {
		t.Errorf("Status = %q, want %q", o.Status, OrderStatusPending)
	}
	if o.LimitPrice != 0 {
		t.Errorf("LimitPrice = %v, want 0 for a market order", o.LimitPrice)
	}
}

func TestNewLimitOrderCarriesPrice(t *testing.T) {
	o := NewLimitOrder("aapl", -5, 101.25, day)

	if o.Kind != OrderKindLimit {
		t.Errorf("Kind = %q, want %q", o.Kind, OrderKindLimit)
	}
	if o.LimitPrice != 101.25 {
		t.Errorf("LimitPrice = %v, want 101.25", o.LimitPrice)
	}
}

func TestOrderFill(t *testing.T) {
	o := NewMarketOrder("googl", -10, day)
	fillDate := day.AddDate(0, 0, 1)

	trade, err := o.Fill(98.5, fillDate)
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if o.Status != OrderStatusFilled {
		t.Errorf("Status = %q, want %q", o.Status, OrderStatusFilled)
	}
	if trade.Ticker != "googl" || trade.Quantity != -10 || trade.Price != 98.5 {
		t.Errorf("Trade = %+v, want googl/-10/98.5", trade)
	}
	if !trade.TradeDate.Equal(fillDate) {
		t.Errorf("TradeDate = %v, want %v", trade.TradeDate, fillDate)
	}

	// A filled order is immutable: second fill and cancel both fail.
	if _, err := o.Fill(99, fillDate); !errors.Is(err, ErrOrderNotPending) {
		t.Errorf("second Fill error = %v, want ErrOrderNotPending", err)
	}
	if err := o.Cancel(); !errors.Is(err, ErrOrderNotPending) {
		t.Errorf("Cancel after fill error = %v, want ErrOrderNotPending", err)
	}
}

func TestOrderCancel(t *testing.T) {
	o := NewMarketOrder("aapl", 10, day)

	if err := o.Cancel(); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if o.Status != OrderStatusCancelled {
		t.Errorf("Status = %q, want %q", o.Status, OrderStatusCancelled)
	}
	if _, err := o.Fill(100, day); !errors.Is(err, ErrOrderNotPending) {
		t.Errorf("Fill after cancel error = %v, want ErrOrderNotPending", err)
	}
}

func TestPositionsGetOrZero(t *testing.T) {
	p := Positions{}
	if got := p.Get("aapl"); got != 0 {
		t.Errorf("Get on empty book = %v, want 0", got)
	}

	p.Add("aapl", 10)
	if got := p.Get("aapl"); got != 10 {
		t.Errorf("Get = %v, want 10", got)
	}
}

func TestPositionsPruneOnFullLiquidation(t *testing.T) {
	p := Positions{}
	p.Add("aapl", 10)
	p.Add("aapl", -10)

	if _, held := p["aapl"]; held {
		t.Error("fully liquidated position should be pruned from the book")
	}
	if len(p) != 0 {
		t.Errorf("len(p) = %d, want 0", len(p))
	}
}

func TestPositionsClone(t *testing.T) {
	p := Positions{"aapl": 10, "googl": -5}
	c := p.Clone()

	c.Add("aapl", 5)
	if p.Get("aapl") != 10 {
		t.Errorf("mutating clone changed original: %v", p.Get("aapl"))
	}

	tickers := p.Tickers()
	if len(tickers) != 2 || tickers[0] != "aapl" || tickers[1] != "googl" {
		t.Errorf("Tickers() = %v, want [aapl googl]", tickers)
	}
}
