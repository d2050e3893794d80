// Package strategy defines the Strategy interface for trading strategies and
// provides a Registry for managing multiple strategy implementations.
package strategy

import (
	"sort"
	"time"

	"meridian/internal/calendar"
	"meridian/internal/data"
	"meridian/internal/domain"
)

// View is the point-in-time state handed to a strategy on each business
// date. Price and Fundamental contain only data visible as of Date; the
// calendar lets the strategy recognize period boundaries.
type View struct {
	Price       *data.Frame
	Fundamental data.FundamentalTable
	Calendar    *calendar.Calendar
	Date        time.Time
	Cash        float64
	Positions   domain.Positions
}

// Strategy is the interface that all trading strategies must implement.
// Digest is called once per business date and returns the orders to submit;
// the engine fills them on the next business date.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// LookbackWindow returns the number of business days of history the
	// strategy needs before its first Digest call. The engine widens the
	// data request accordingly.
	LookbackWindow() int

	// Benchmark returns the benchmark symbol to compare against, or "" for
	// none.
	Benchmark() string

	// RequiredFields returns the fundamental fields the strategy reads, or
	// nil for price-only strategies.
	RequiredFields() []string

	// Digest inspects the current view and returns zero or more orders.
	Digest(view View) ([]*domain.Order, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
