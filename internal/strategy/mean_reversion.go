package strategy

import (
	"fmt"
	"math"

	"backsim/internal/indicator"
	"backsim/internal/series"
)

// Compile-time interface check.
var _ Strategy = (*MeanReversion)(nil)

// MeanReversion goes long when the rolling z-score of price drops to or
// below -Entry and returns flat when the absolute z-score falls to or below
// Exit.
type MeanReversion struct {
	Lookback int
	Entry    float64
	Exit     float64
}

// NewMeanReversion creates a MeanReversion strategy with the given lookback
// and entry/exit z-score thresholds.
func NewMeanReversion(lookback int, entry, exit float64) *MeanReversion {
	return &MeanReversion{Lookback: lookback, Entry: entry, Exit: exit}
}

// Name returns "mean-reversion".
func (s *MeanReversion) Name() string { return "mean-reversion" }

// Signal computes the mean-reversion position signal for close.
func (s *MeanReversion) Signal(close series.Series) (series.Signal, error) {
	if s.Lookback < 1 {
		return series.Signal{}, fmt.Errorf("strategy: mean-reversion lookback must be at least 1, got %d", s.Lookback)
	}

	z, err := indicator.ZScore(close.Values, s.Lookback)
	if err != nil {
		return series.Signal{}, err
	}

	values := make([]int, close.Len())
	current := 0
	for i := range values {
		// NaN comparisons are false, so warmup bars neither enter nor exit.
		enter := z[i] <= -s.Entry
		exit := math.Abs(z[i]) <= s.Exit
		if current == 0 && enter {
			current = 1
		} else if current == 1 && exit {
			current = 0
		}
		values[i] = current
	}

	for i := 0; i < s.Lookback-1 && i < len(values); i++ {
		values[i] = 0
	}

	return series.Signal{Times: close.Times, Values: values}, nil
}
