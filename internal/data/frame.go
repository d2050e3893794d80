package data

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"meridian/internal/calendar"
)

// ErrAmbiguousColumn is returned when a column must be selected from a frame
// with several candidates and the caller did not name one.
var ErrAmbiguousColumn = errors.New("frame has multiple columns, specify which one")

// Frame is a two-dimensional date × column table of float64 values, ordered
// ascending by date. Missing observations are NaN. Frames are treated as
// immutable once built; transformations return new frames.
type Frame struct {
	dates   []time.Time
	index   map[time.Time]int
	columns []string
	cols    map[string][]float64
}

// FrameBuilder accumulates (column, date, value) observations and assembles
// them into a Frame.
type FrameBuilder struct {
	values map[string]map[time.Time]float64
}

// NewFrameBuilder creates an empty FrameBuilder.
func NewFrameBuilder() *FrameBuilder {
	return &FrameBuilder{values: make(map[string]map[time.Time]float64)}
}

// Add records one observation. Later adds for the same (column, date)
// overwrite earlier ones.
func (b *FrameBuilder) Add(column string, date time.Time, value float64) {
	col, ok := b.values[column]
	if !ok {
		col = make(map[time.Time]float64)
		b.values[column] = col
	}
	col[calendar.Normalize(date)] = value
}

// Build assembles the observations into a Frame whose date index is the
// sorted union of all observation dates. Cells without an observation are
// NaN.
func (b *FrameBuilder) Build() *Frame {
	dateSet := make(map[time.Time]bool)
	for _, col := range b.values {
		for d := range col {
			dateSet[d] = true
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	columns := make([]string, 0, len(b.values))
	for name := range b.values {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	f := &Frame{
		dates:   dates,
		index:   make(map[time.Time]int, len(dates)),
		columns: columns,
		cols:    make(map[string][]float64, len(columns)),
	}
	for i, d := range dates {
		f.index[d] = i
	}
	for _, name := range columns {
		values := make([]float64, len(dates))
		for i, d := range dates {
			v, ok := b.values[name][d]
			if !ok {
				v = math.NaN()
			}
			values[i] = v
		}
		f.cols[name] = values
	}
	return f
}

// Dates returns the frame's date index. Callers must not modify it.
func (f *Frame) Dates() []time.Time { return f.dates }

// Columns returns the frame's column names in sorted order. Callers must
// not modify it.
func (f *Frame) Columns() []string { return f.columns }

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.dates) }

// Value returns the observation for column on exactly the given date. ok is
// false when the date is not in the index, the column does not exist, or
// the cell is NaN.
func (f *Frame) Value(column string, date time.Time) (float64, bool) {
	i, ok := f.index[calendar.Normalize(date)]
	if !ok {
		return 0, false
	}
	values, ok := f.cols[column]
	if !ok || math.IsNaN(values[i]) {
		return 0, false
	}
	return values[i], true
}

// LastValueAsOf returns the most recent non-NaN observation for column with
// a date <= asOf.
func (f *Frame) LastValueAsOf(column string, asOf time.Time) (float64, bool) {
	values, ok := f.cols[column]
	if !ok {
		return 0, false
	}
	asOf = calendar.Normalize(asOf)
	for i := len(f.dates) - 1; i >= 0; i-- {
		if f.dates[i].After(asOf) {
			continue
		}
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

// Column returns the named column as a Series aligned to the frame's date
// index (NaN cells included). When name is empty and the frame has exactly
// one column that column is used; with several candidates the selection is
// ambiguous and an error is returned.
func (f *Frame) Column(name string) (Series, error) {
	if name == "" {
		if len(f.columns) != 1 {
			return Series{}, fmt.Errorf("selecting from %d columns: %w", len(f.columns), ErrAmbiguousColumn)
		}
		name = f.columns[0]
	}
	values, ok := f.cols[name]
	if !ok {
		return Series{}, fmt.Errorf("frame has no column %q", name)
	}
	return Series{
		Dates:  append([]time.Time(nil), f.dates...),
		Values: append([]float64(nil), values...),
	}, nil
}

// VisibleAsOf returns the point-in-time view of the frame as of the given
// date: rows dated later than asOf are removed, and columns with no
// observation yet (all NaN, i.e. not listed) are excluded entirely rather
// than padded.
func (f *Frame) VisibleAsOf(asOf time.Time) *Frame {
	asOf = calendar.Normalize(asOf)
	n := sort.Search(len(f.dates), func(i int) bool { return f.dates[i].After(asOf) })

	out := &Frame{
		dates: f.dates[:n],
		index: make(map[time.Time]int, n),
		cols:  make(map[string][]float64),
	}
	for i, d := range out.dates {
		out.index[d] = i
	}
	for _, name := range f.columns {
		values := f.cols[name][:n]
		listed := false
		for _, v := range values {
			if !math.IsNaN(v) {
				listed = true
				break
			}
		}
		if !listed {
			continue
		}
		out.columns = append(out.columns, name)
		out.cols[name] = values
	}
	return out
}

// ForwardFill returns a frame in which every NaN cell takes the last
// preceding non-NaN value of its column. Leading NaNs (before a ticker is
// listed) remain NaN.
func (f *Frame) ForwardFill() *Frame {
	out := f.clone()
	for _, name := range out.columns {
		values := out.cols[name]
		last := math.NaN()
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = last
			} else {
				last = v
			}
		}
	}
	return out
}

// Round returns a frame with every value rounded to the given number of
// decimal places.
func (f *Frame) Round(decimals int) *Frame {
	out := f.clone()
	for _, name := range out.columns {
		values := out.cols[name]
		for i, v := range values {
			if !math.IsNaN(v) {
				values[i] = roundTo(v, decimals)
			}
		}
	}
	return out
}

func (f *Frame) clone() *Frame {
	out := &Frame{
		dates:   f.dates,
		index:   f.index,
		columns: f.columns,
		cols:    make(map[string][]float64, len(f.cols)),
	}
	for name, values := range f.cols {
		out.cols[name] = append([]float64(nil), values...)
	}
	return out
}

// AlignSeries inner-joins several series on their common dates and returns
// the result as a Frame with one column per series. Dates missing from any
// input are dropped.
func AlignSeries(names []string, series []Series) *Frame {
	common := make(map[time.Time]int)
	for _, s := range series {
		for _, d := range s.Dates {
			common[d]++
		}
	}

	b := NewFrameBuilder()
	for i, s := range series {
		for j, d := range s.Dates {
			if common[d] == len(series) {
				b.Add(names[i], d, s.Values[j])
			}
		}
	}
	return b.Build()
}
