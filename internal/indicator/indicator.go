// Package indicator provides rolling-window indicators over price values.
// Warmup positions (fewer than window observations) are NaN so downstream
// comparisons evaluate false until enough data exists.
package indicator

import (
	"fmt"
	"math"
)

// SMA computes a simple moving average with the given window. The first
// window-1 positions are NaN.
func SMA(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("indicator: sma window must be at least 1, got %d", window)
	}

	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// ZScore computes a rolling z-score over the given lookback using the
// population standard deviation. Positions where the score is undefined
// (zero variance) are 0; warmup positions are NaN.
func ZScore(values []float64, lookback int) ([]float64, error) {
	if lookback < 1 {
		return nil, fmt.Errorf("indicator: zscore lookback must be at least 1, got %d", lookback)
	}

	out := make([]float64, len(values))
	for i := range values {
		if i < lookback-1 {
			out[i] = math.NaN()
			continue
		}
		window := values[i-lookback+1 : i+1]
		m := mean(window)
		sd := stddevPop(window, m)
		if sd == 0 || math.IsNaN(sd) {
			out[i] = 0
			continue
		}
		z := (values[i] - m) / sd
		if math.IsInf(z, 0) || math.IsNaN(z) {
			z = 0
		}
		out[i] = z
	}
	return out, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevPop(xs []float64, m float64) float64 {
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
