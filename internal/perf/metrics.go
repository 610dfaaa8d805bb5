package perf

import (
	"math"
	"time"

	"backsim/internal/series"
)

// TradingDaysPerYear is the annualization factor for daily return series.
const TradingDaysPerYear = 252

// Summary holds the scalar performance metrics for one equity curve.
type Summary struct {
	TotalReturn     float64
	CAGR            float64
	AnnualizedVol   float64
	Sharpe          float64
	Sortino         float64
	MaxDrawdown     float64
	LongestDrawdown int
}

// Summarize computes every scalar metric from an equity curve in one call.
// rfDaily is the risk-free rate per bar used by Sharpe and Sortino.
func Summarize(equity series.Series, rfDaily float64) Summary {
	returns := Returns(equity)
	return Summary{
		TotalReturn:     TotalReturn(equity),
		CAGR:            CAGR(equity),
		AnnualizedVol:   AnnualizedVol(returns),
		Sharpe:          Sharpe(returns, rfDaily),
		Sortino:         Sortino(returns, rfDaily),
		MaxDrawdown:     MaxDrawdown(equity),
		LongestDrawdown: LongestDrawdown(equity),
	}
}

// Returns converts an equity curve into period-over-period percentage
// changes, dropping the undefined first observation.
func Returns(equity series.Series) []float64 {
	if equity.Len() < 2 {
		return nil
	}
	returns := make([]float64, 0, equity.Len()-1)
	for i := 1; i < equity.Len(); i++ {
		returns = append(returns, safeRatio(equity.Values[i], equity.Values[i-1])-1)
	}
	return returns
}

// TotalReturn is last/first - 1, or 0 for fewer than two points.
func TotalReturn(equity series.Series) float64 {
	if equity.Len() < 2 {
		return 0
	}
	return safeRatio(equity.Values[equity.Len()-1], equity.Values[0]) - 1
}

// AnnualizedVol is the population standard deviation of returns scaled by
// the square root of the trading year.
func AnnualizedVol(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stddev(returns) * math.Sqrt(TradingDaysPerYear)
}

// Sharpe is the annualized mean excess return over the annualized population
// standard deviation of excess returns. Zero volatility yields 0 rather than
// a division by zero.
func Sharpe(returns []float64, rfDaily float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	excess := subtract(returns, rfDaily)
	vol := stddev(excess)
	if vol == 0 || math.IsNaN(vol) {
		return 0
	}
	return (mean(excess) * TradingDaysPerYear) / (vol * math.Sqrt(TradingDaysPerYear))
}

// Sortino is Sharpe with the denominator restricted to the population
// standard deviation of negative excess returns. No negative returns yields 0.
func Sortino(returns []float64, rfDaily float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	excess := subtract(returns, rfDaily)
	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	vol := stddev(downside)
	if vol == 0 || math.IsNaN(vol) {
		return 0
	}
	return (mean(excess) * TradingDaysPerYear) / (vol * math.Sqrt(TradingDaysPerYear))
}

// CAGR is the compound annual growth rate over the calendar span of the
// equity curve, using 365.25-day years with the elapsed days floored at 1.
func CAGR(equity series.Series) float64 {
	if equity.Empty() {
		return 0
	}
	start := equity.Values[0]
	end := equity.Values[equity.Len()-1]
	if start <= 0 {
		return 0
	}

	days := int(equity.Times[equity.Len()-1].Sub(equity.Times[0]).Hours() / 24)
	if days < 1 {
		days = 1
	}
	years := float64(days) / 365.25
	return math.Pow(end/start, 1/years) - 1
}

// DrawdownSeries is equity over its running maximum, minus one. Every value
// is <= 0.
func DrawdownSeries(equity series.Series) series.Series {
	if equity.Empty() {
		return series.Series{}
	}
	times := make([]time.Time, equity.Len())
	values := make([]float64, equity.Len())
	peak := math.Inf(-1)
	for i, v := range equity.Values {
		if v > peak {
			peak = v
		}
		times[i] = equity.Times[i]
		values[i] = safeRatio(v, peak) - 1
	}
	return series.Series{Times: times, Values: values}
}

// MaxDrawdown is the minimum of the drawdown series, or 0 for an empty curve.
func MaxDrawdown(equity series.Series) float64 {
	dd := DrawdownSeries(equity)
	if dd.Empty() {
		return 0
	}
	min := 0.0
	for _, v := range dd.Values {
		if v < min {
			min = v
		}
	}
	return min
}

// LongestDrawdown is the longest contiguous run of bars with strictly
// negative drawdown.
func LongestDrawdown(equity series.Series) int {
	dd := DrawdownSeries(equity)
	var longest, current int
	for _, v := range dd.Values {
		if v < 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// safeRatio divides num by den with a defined-zero policy for zero or NaN
// denominators, so undefined values never propagate into aggregation.
func safeRatio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation (ddof = 0).
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func subtract(xs []float64, v float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x - v
	}
	return out
}
