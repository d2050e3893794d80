// Package data provides the point-in-time market data containers and the
// Provider interface the simulation engine consumes. Frames and series are
// date-indexed; visibility rules (no observation later than the as-of date,
// fundamental publication lag) are enforced here so the engine and
// strategies can never see the future.
package data

import (
	"math"
	"time"

	"meridian/internal/calendar"
)

// Series is a single date-indexed value series, ordered ascending by date.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Dates) }

// Append adds a sample. Callers must append in ascending date order.
func (s *Series) Append(date time.Time, value float64) {
	s.Dates = append(s.Dates, calendar.Normalize(date))
	s.Values = append(s.Values, value)
}

// Last returns the final sample. ok is false for an empty series.
func (s Series) Last() (date time.Time, value float64, ok bool) {
	if len(s.Dates) == 0 {
		return time.Time{}, 0, false
	}
	n := len(s.Dates) - 1
	return s.Dates[n], s.Values[n], true
}

// Slice returns the sub-series of samples with dates in [start, end].
func (s Series) Slice(start, end time.Time) Series {
	start, end = calendar.Normalize(start), calendar.Normalize(end)
	out := Series{}
	for i, d := range s.Dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		out.Append(d, s.Values[i])
	}
	return out
}

// Rebase normalizes the series so its first value equals base (e.g. 100).
// An empty series or a zero first value is returned unchanged.
func (s Series) Rebase(base float64) Series {
	if len(s.Values) == 0 || s.Values[0] == 0 {
		return s
	}
	out := Series{
		Dates:  append([]time.Time(nil), s.Dates...),
		Values: make([]float64, len(s.Values)),
	}
	for i, v := range s.Values {
		out.Values[i] = v / s.Values[0] * base
	}
	return out
}

// RebaseBy normalizes the series against an explicit first value, so that
// several series can be rebased jointly from their own first aligned values.
func (s Series) RebaseBy(first, base float64) Series {
	if first == 0 {
		return s
	}
	out := Series{
		Dates:  append([]time.Time(nil), s.Dates...),
		Values: make([]float64, len(s.Values)),
	}
	for i, v := range s.Values {
		out.Values[i] = v / first * base
	}
	return out
}

// Round rounds every value to the given number of decimal places.
func (s Series) Round(decimals int) Series {
	out := Series{
		Dates:  append([]time.Time(nil), s.Dates...),
		Values: make([]float64, len(s.Values)),
	}
	for i, v := range s.Values {
		out.Values[i] = roundTo(v, decimals)
	}
	return out
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
