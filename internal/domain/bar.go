package domain

import "time"

// Bar is one daily OHLCV observation for a symbol. Close is the adjusted
// close used for fills and mark-to-market.
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
