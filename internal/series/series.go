// Package series provides the time-indexed series types consumed by the
// simulation engine and the performance analytics.
package series

import (
	"fmt"
	"time"
)

// Series is an ordered mapping from timestamp to a float value. Timestamps
// must be strictly increasing with no duplicates; Validate reports
// violations.
type Series struct {
	Times  []time.Time
	Values []float64
}

// New builds a validated Series from parallel time and value slices.
func New(times []time.Time, values []float64) (Series, error) {
	s := Series{Times: times, Values: values}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Times) }

// Empty reports whether the series has no observations.
func (s Series) Empty() bool { return len(s.Times) == 0 }

// Validate checks that times and values are the same length and that
// timestamps are strictly increasing.
func (s Series) Validate() error {
	if len(s.Times) != len(s.Values) {
		return fmt.Errorf("series: %d timestamps but %d values", len(s.Times), len(s.Values))
	}
	for i := 1; i < len(s.Times); i++ {
		if !s.Times[i].After(s.Times[i-1]) {
			return fmt.Errorf("series: timestamps not strictly increasing at index %d (%s >= %s)",
				i, s.Times[i-1].Format(time.RFC3339), s.Times[i].Format(time.RFC3339))
		}
	}
	return nil
}

// Signal is an ordered mapping from timestamp to a position flag: 0 = flat,
// 1 = fully long. A Signal must share the exact index of the price Series it
// is applied to.
type Signal struct {
	Times  []time.Time
	Values []int
}

// NewSignal builds a validated Signal from parallel time and value slices.
func NewSignal(times []time.Time, values []int) (Signal, error) {
	g := Signal{Times: times, Values: values}
	if err := g.Validate(); err != nil {
		return Signal{}, err
	}
	return g, nil
}

// Len returns the number of observations.
func (g Signal) Len() int { return len(g.Times) }

// Validate checks slice lengths, timestamp ordering, and that every value is
// 0 or 1.
func (g Signal) Validate() error {
	if len(g.Times) != len(g.Values) {
		return fmt.Errorf("signal: %d timestamps but %d values", len(g.Times), len(g.Values))
	}
	for i := 1; i < len(g.Times); i++ {
		if !g.Times[i].After(g.Times[i-1]) {
			return fmt.Errorf("signal: timestamps not strictly increasing at index %d", i)
		}
	}
	for i, v := range g.Values {
		if v != 0 && v != 1 {
			return fmt.Errorf("signal: non-binary value %d at index %d", v, i)
		}
	}
	return nil
}

// Aligned verifies that sig shares the exact index of s: same length, same
// timestamps, same order.
func Aligned(s Series, sig Signal) error {
	if len(s.Times) != len(sig.Times) {
		return fmt.Errorf("series/signal index mismatch: %d vs %d observations", len(s.Times), len(sig.Times))
	}
	for i := range s.Times {
		if !s.Times[i].Equal(sig.Times[i]) {
			return fmt.Errorf("series/signal index mismatch at %d: %s vs %s",
				i, s.Times[i].Format(time.RFC3339), sig.Times[i].Format(time.RFC3339))
		}
	}
	return nil
}

// SameIndex verifies that two float series share the exact index.
func SameIndex(a, b Series) error {
	if len(a.Times) != len(b.Times) {
		return fmt.Errorf("series index mismatch: %d vs %d observations", len(a.Times), len(b.Times))
	}
	for i := range a.Times {
		if !a.Times[i].Equal(b.Times[i]) {
			return fmt.Errorf("series index mismatch at %d", i)
		}
	}
	return nil
}
