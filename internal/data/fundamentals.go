package data

import (
	"sort"
	"time"

	"meridian/internal/calendar"
)

// FundamentalRow is one reporting-period observation for a ticker: the
// fiscal period end date plus the requested field values.
type FundamentalRow struct {
	Date   time.Time
	Ticker string
	Fields map[string]float64
}

// FundamentalTable is a collection of fundamental observations ordered
// ascending by period end date.
type FundamentalTable []FundamentalRow

// Sort orders the table ascending by date, then ticker.
func (t FundamentalTable) Sort() {
	sort.Slice(t, func(i, j int) bool {
		if !t[i].Date.Equal(t[j].Date) {
			return t[i].Date.Before(t[j].Date)
		}
		return t[i].Ticker < t[j].Ticker
	})
}

// VisibleAsOf returns the rows whose period end date is on or before the
// cutoff. The caller is expected to have already shifted the cutoff back by
// the publication delay.
func (t FundamentalTable) VisibleAsOf(cutoff time.Time) FundamentalTable {
	cutoff = calendar.Normalize(cutoff)
	n := sort.Search(len(t), func(i int) bool { return t[i].Date.After(cutoff) })
	return t[:n]
}

// Latest returns the most recent value of field for ticker with a period
// end date on or before asOf.
func (t FundamentalTable) Latest(ticker, field string, asOf time.Time) (float64, bool) {
	asOf = calendar.Normalize(asOf)
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Date.After(asOf) || t[i].Ticker != ticker {
			continue
		}
		if v, ok := t[i].Fields[field]; ok {
			return v, true
		}
	}
	return 0, false
}
