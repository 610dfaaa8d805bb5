// Package domain defines the market-data types shared across the backsim
// packages.
package domain

import (
	"time"

	"backsim/internal/series"
)

// Bar is a single OHLCV observation for one trading period.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// CloseSeries extracts the close column of bars as a time-indexed Series.
// Bars must already be sorted by timestamp.
func CloseSeries(bars []Bar) series.Series {
	return extract(bars, func(b *Bar) float64 { return b.Close })
}

// OpenSeries extracts the open column of bars as a time-indexed Series.
func OpenSeries(bars []Bar) series.Series {
	return extract(bars, func(b *Bar) float64 { return b.Open })
}

func extract(bars []Bar, field func(*Bar) float64) series.Series {
	times := make([]time.Time, len(bars))
	values := make([]float64, len(bars))
	for i := range bars {
		times[i] = bars[i].Timestamp
		values[i] = field(&bars[i])
	}
	return series.Series{Times: times, Values: values}
}
