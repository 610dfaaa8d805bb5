// Package strategy defines the Strategy interface for position-signal
// generators and provides a Registry for managing multiple implementations.
package strategy

import (
	"sort"

	"backsim/internal/series"
)

// Strategy turns a close-price series into an index-aligned 0/1 position
// signal: 0 = flat, 1 = fully long.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Signal computes the position signal for the given close prices. The
	// returned signal shares the exact index of close.
	Signal(close series.Series) (series.Signal, error)
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

// AlignNextBar shifts a signal one bar forward so that a position computed
// on bar close is first acted on at the following bar. The first bar becomes
// flat.
func AlignNextBar(sig series.Signal) series.Signal {
	values := make([]int, len(sig.Values))
	if len(sig.Values) > 1 {
		copy(values[1:], sig.Values[:len(sig.Values)-1])
	}
	return series.Signal{Times: sig.Times, Values: values}
}
