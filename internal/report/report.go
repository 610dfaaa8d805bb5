// Package report renders backtest results as text for terminal output.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"backsim/internal/perf"
)

// Header identifies the run being reported.
type Header struct {
	Symbol      string
	Strategy    string
	Start       time.Time
	End         time.Time
	InitialCash float64
	FinalEquity float64
}

// Render writes a human-readable report of the run's performance summary and
// trade statistics.
func Render(w io.Writer, h Header, sum perf.Summary, stats perf.TradeStats) {
	fmt.Fprintf(w, "%s  %s  %s → %s\n",
		h.Symbol, h.Strategy,
		h.Start.Format("2006-01-02"), h.End.Format("2006-01-02"))
	fmt.Fprintf(w, "initial cash  $%s\n", FormatMoney(h.InitialCash))
	fmt.Fprintf(w, "final equity  $%s\n", FormatMoney(h.FinalEquity))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "total return      %s\n", FormatPct(sum.TotalReturn))
	fmt.Fprintf(w, "cagr              %s\n", FormatPct(sum.CAGR))
	fmt.Fprintf(w, "volatility (ann)  %s\n", FormatPct(sum.AnnualizedVol))
	fmt.Fprintf(w, "sharpe            %.2f\n", sum.Sharpe)
	fmt.Fprintf(w, "sortino           %.2f\n", sum.Sortino)
	fmt.Fprintf(w, "max drawdown      %s\n", FormatPct(sum.MaxDrawdown))
	fmt.Fprintf(w, "longest drawdown  %d bars\n", sum.LongestDrawdown)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "trades            %d\n", stats.NumTrades)
	if stats.NumTrades > 0 {
		fmt.Fprintf(w, "win rate          %s\n", FormatPct(stats.WinRate))
		fmt.Fprintf(w, "avg win           $%s\n", FormatMoney(stats.AvgWin))
		fmt.Fprintf(w, "avg loss          $%s\n", FormatMoney(stats.AvgLoss))
		fmt.Fprintf(w, "profit factor     %s\n", FormatRatio(stats.ProfitFactor))
	}
}

// FormatMoney formats a dollar value with comma-separated thousands and two
// decimals.
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	start := len(intPart) % 3
	if start > 0 {
		b.WriteString(intPart[:start])
	}
	for i := start; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(fracPart)

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatPct formats a fractional value as a signed percentage.
func FormatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// FormatRatio formats a ratio, rendering the defined-infinite case as "inf".
func FormatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
