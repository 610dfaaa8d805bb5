package strategy

import (
	"fmt"

	"backsim/internal/indicator"
	"backsim/internal/series"
)

// Compile-time interface check.
var _ Strategy = (*SMACross)(nil)

// SMACross goes long when the fast SMA crosses above the slow SMA and flat
// when it crosses back below. The warmup region (before both averages
// exist) is forced flat.
type SMACross struct {
	Fast int
	Slow int
}

// NewSMACross creates an SMACross with the given fast and slow periods.
func NewSMACross(fast, slow int) *SMACross {
	return &SMACross{Fast: fast, Slow: slow}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string { return "sma-cross" }

// Signal computes the crossover position signal for close.
func (s *SMACross) Signal(close series.Series) (series.Signal, error) {
	if s.Fast < 1 || s.Slow < 1 {
		return series.Signal{}, fmt.Errorf("strategy: sma-cross periods must be at least 1, got fast=%d slow=%d", s.Fast, s.Slow)
	}

	fast, err := indicator.SMA(close.Values, s.Fast)
	if err != nil {
		return series.Signal{}, err
	}
	slow, err := indicator.SMA(close.Values, s.Slow)
	if err != nil {
		return series.Signal{}, err
	}

	values := make([]int, close.Len())
	current := 0
	for i := range values {
		// NaN comparisons are false, so warmup bars never cross.
		crossAbove := i > 0 && fast[i] > slow[i] && fast[i-1] <= slow[i-1]
		crossBelow := i > 0 && fast[i] < slow[i] && fast[i-1] >= slow[i-1]
		if crossAbove {
			current = 1
		} else if crossBelow {
			current = 0
		}
		values[i] = current
	}

	warmup := s.Fast
	if s.Slow > warmup {
		warmup = s.Slow
	}
	warmup--
	for i := 0; i < warmup && i < len(values); i++ {
		values[i] = 0
	}

	return series.Signal{Times: close.Times, Values: values}, nil
}
