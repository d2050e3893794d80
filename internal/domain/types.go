// Package domain defines the core value types shared across the meridian
// platform: orders, trades, and position books.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// OrderKind distinguishes market orders from limit orders.
type OrderKind string

// Order kinds.
const (
	OrderKindMarket OrderKind = "market"
	OrderKindLimit  OrderKind = "limit"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

// Order statuses. An order starts pending and transitions exactly once to
// filled or cancelled.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ErrOrderNotPending is returned when a fill or cancel is attempted on an
// order that has already left the pending state.
var ErrOrderNotPending = fmt.Errorf("order is not pending")

// Order is a request to trade a quantity of a ticker. Quantity is signed:
// positive buys (or increases a long), negative sells (or increases a
// short). A market order carries no price at submission; a limit order must
// carry one.
type Order struct {
	Ticker      string      `json:"ticker"`
	Quantity    float64     `json:"quantity"`
	Kind        OrderKind   `json:"kind"`
	LimitPrice  float64     `json:"limit_price,omitempty"` // set only for limit orders
	SubmittedAt time.Time   `json:"submitted_at"`
	Status      OrderStatus `json:"status"`

	// Populated by Fill.
	FillPrice float64   `json:"fill_price,omitempty"`
	FilledAt  time.Time `json:"filled_at,omitempty"`
}

// NewMarketOrder creates a pending market order submitted on the given date.
func NewMarketOrder(ticker string, quantity float64, submitted time.Time) *Order {
	return &Order{
		Ticker:      ticker,
		Quantity:    quantity,
		Kind:        OrderKindMarket,
		SubmittedAt: submitted,
		Status:      OrderStatusPending,
	}
}

// NewLimitOrder creates a pending limit order with the given limit price.
func NewLimitOrder(ticker string, quantity, limitPrice float64, submitted time.Time) *Order {
	return &Order{
		Ticker:      ticker,
		Quantity:    quantity,
		Kind:        OrderKindLimit,
		LimitPrice:  limitPrice,
		SubmittedAt: submitted,
		Status:      OrderStatusPending,
	}
}

// Fill transitions the order from pending to filled at the given price and
// date, and returns the resulting Trade. Once filled the order is immutable.
func (o *Order) Fill(price float64, tradeDate time.Time) (Trade, error) {
	if o.Status != OrderStatusPending {
		return Trade{}, fmt.Errorf("filling %s order for %s: %w", o.Status, o.Ticker, ErrOrderNotPending)
	}
	o.Status = OrderStatusFilled
	o.FillPrice = price
	o.FilledAt = tradeDate
	return Trade{
		Ticker:    o.Ticker,
		Quantity:  o.Quantity,
		Price:     price,
		TradeDate: tradeDate,
	}, nil
}

// Cancel transitions the order from pending to cancelled.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cancelling %s order for %s: %w", o.Status, o.Ticker, ErrOrderNotPending)
	}
	o.Status = OrderStatusCancelled
	return nil
}

// Trade is the record of a single executed fill. Trades are created exactly
// once per filled order and are immutable thereafter.
type Trade struct {
	Ticker    string    `json:"ticker"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	TradeDate time.Time `json:"trade_date"`
}

// Positions maps tickers to signed share counts. Absent entries mean zero.
type Positions map[string]float64

// Get returns the share count for ticker, or zero when the ticker is not
// held.
func (p Positions) Get(ticker string) float64 {
	return p[ticker]
}

// Add adjusts the position for ticker by delta. Positions that return to
// exactly zero are pruned so that snapshots only list live holdings.
func (p Positions) Add(ticker string, delta float64) {
	q := p[ticker] + delta
	if q == 0 {
		delete(p, ticker)
		return
	}
	p[ticker] = q
}

// Clone returns an independent copy of the position book.
func (p Positions) Clone() Positions {
	c := make(Positions, len(p))
	for ticker, qty := range p {
		c[ticker] = qty
	}
	return c
}

// Tickers returns the held tickers in sorted order.
func (p Positions) Tickers() []string {
	tickers := make([]string, 0, len(p))
	for ticker := range p {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}
