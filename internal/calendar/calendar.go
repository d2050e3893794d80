// Package calendar implements the business-date calendar used to step a
// backtest: an ordered sequence of valid trading dates with successor lookup
// and period-boundary predicates.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidDate is returned when a successor is requested for a date the
// calendar has no mapping for: a date outside the sequence, or the final
// date (which has no successor).
var ErrInvalidDate = errors.New("date is not covered by the business calendar")

// Normalize truncates t to midnight UTC so that dates compare and hash
// consistently regardless of the clock time or zone they were built with.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Calendar is an immutable, strictly increasing sequence of business dates.
type Calendar struct {
	dates []time.Time
	index map[time.Time]int
}

// New builds a Calendar from an unordered, possibly duplicated collection of
// dates. Input dates are normalized, sorted ascending, and deduplicated.
func New(dates []time.Time) *Calendar {
	normalized := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		normalized = append(normalized, Normalize(d))
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Before(normalized[j]) })

	c := &Calendar{index: make(map[time.Time]int, len(normalized))}
	for _, d := range normalized {
		if n := len(c.dates); n > 0 && c.dates[n-1].Equal(d) {
			continue
		}
		c.index[d] = len(c.dates)
		c.dates = append(c.dates, d)
	}
	return c
}

// Len returns the number of business dates in the calendar.
func (c *Calendar) Len() int { return len(c.dates) }

// First returns the earliest business date.
func (c *Calendar) First() time.Time { return c.dates[0] }

// Last returns the latest business date.
func (c *Calendar) Last() time.Time { return c.dates[len(c.dates)-1] }

// IsBusinessDate reports whether d is a member of the calendar.
func (c *Calendar) IsBusinessDate(d time.Time) bool {
	_, ok := c.index[Normalize(d)]
	return ok
}

// NextBusinessDate returns the smallest calendar date strictly greater than
// d. It fails with ErrInvalidDate when d is not itself a calendar member or
// when d is the final date.
func (c *Calendar) NextBusinessDate(d time.Time) (time.Time, error) {
	i, ok := c.index[Normalize(d)]
	if !ok {
		return time.Time{}, fmt.Errorf("next business date of %s: %w", d.Format("2006-01-02"), ErrInvalidDate)
	}
	if i == len(c.dates)-1 {
		return time.Time{}, fmt.Errorf("next business date of %s: last known date: %w", d.Format("2006-01-02"), ErrInvalidDate)
	}
	return c.dates[i+1], nil
}

// FirstOnOrAfter returns the earliest calendar date >= d. The boolean is
// false when every calendar date precedes d.
func (c *Calendar) FirstOnOrAfter(d time.Time) (time.Time, bool) {
	d = Normalize(d)
	i := sort.Search(len(c.dates), func(i int) bool { return !c.dates[i].Before(d) })
	if i == len(c.dates) {
		return time.Time{}, false
	}
	return c.dates[i], true
}

// successor returns the next calendar date after d, or false when d is not a
// member or has no successor. Period predicates are false in either case.
func (c *Calendar) successor(d time.Time) (time.Time, bool) {
	i, ok := c.index[Normalize(d)]
	if !ok || i == len(c.dates)-1 {
		return time.Time{}, false
	}
	return c.dates[i+1], true
}

// IsWeekEndBusinessDate reports whether d is the last business date of its
// ISO week: the next business date falls in a different week.
func (c *Calendar) IsWeekEndBusinessDate(d time.Time) bool {
	next, ok := c.successor(d)
	if !ok {
		return false
	}
	y1, w1 := Normalize(d).ISOWeek()
	y2, w2 := next.ISOWeek()
	return y1 != y2 || w1 != w2
}

// IsMonthEndBusinessDate reports whether d is the last business date of its
// month.
func (c *Calendar) IsMonthEndBusinessDate(d time.Time) bool {
	next, ok := c.successor(d)
	if !ok {
		return false
	}
	d = Normalize(d)
	return d.Year() != next.Year() || d.Month() != next.Month()
}

// IsQuarterEndBusinessDate reports whether d is the last business date of a
// calendar quarter. The date must fall in a quarter-end month (March, June,
// September, or December) and its successor must belong to a different
// quarter.
func (c *Calendar) IsQuarterEndBusinessDate(d time.Time) bool {
	next, ok := c.successor(d)
	if !ok {
		return false
	}
	d = Normalize(d)
	switch d.Month() {
	case time.March, time.June, time.September, time.December:
	default:
		return false
	}
	return quarterOf(d) != quarterOf(next) || d.Year() != next.Year()
}

// IsSemiannualEndBusinessDate reports whether d is the last business date of
// a calendar half-year (a June or December month boundary).
func (c *Calendar) IsSemiannualEndBusinessDate(d time.Time) bool {
	next, ok := c.successor(d)
	if !ok {
		return false
	}
	d = Normalize(d)
	if m := d.Month(); m != time.June && m != time.December {
		return false
	}
	return halfOf(d) != halfOf(next) || d.Year() != next.Year()
}

// IsYearEndBusinessDate reports whether d is the last business date of its
// year.
func (c *Calendar) IsYearEndBusinessDate(d time.Time) bool {
	next, ok := c.successor(d)
	if !ok {
		return false
	}
	return Normalize(d).Year() != next.Year()
}

func quarterOf(d time.Time) int { return (int(d.Month()) - 1) / 3 }

func halfOf(d time.Time) int { return (int(d.Month()) - 1) / 6 }
