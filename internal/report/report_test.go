package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"backsim/internal/perf"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.5, "999.50"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-9876.5, "-9,876.50"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(0.1234); got != "+12.34%" {
		t.Errorf("FormatPct(0.1234) = %q, want %q", got, "+12.34%")
	}
	if got := FormatPct(-0.05); got != "-5.00%" {
		t.Errorf("FormatPct(-0.05) = %q, want %q", got, "-5.00%")
	}
}

func TestFormatRatio(t *testing.T) {
	if got := FormatRatio(math.Inf(1)); got != "inf" {
		t.Errorf("FormatRatio(+Inf) = %q, want %q", got, "inf")
	}
	if got := FormatRatio(1.5); got != "1.50" {
		t.Errorf("FormatRatio(1.5) = %q, want %q", got, "1.50")
	}
}

func TestRender(t *testing.T) {
	var b strings.Builder
	Render(&b, Header{
		Symbol:      "AAPL",
		Strategy:    "sma-cross",
		Start:       time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
		InitialCash: 100000,
		FinalEquity: 112000,
	}, perf.Summary{TotalReturn: 0.12, Sharpe: 0.8}, perf.TradeStats{NumTrades: 4, WinRate: 0.75})

	out := b.String()
	for _, want := range []string{"AAPL", "sma-cross", "+12.00%", "100,000.00", "trades            4"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSkipsTradeDetailWhenNoTrades(t *testing.T) {
	var b strings.Builder
	Render(&b, Header{Symbol: "X", Strategy: "s"}, perf.Summary{}, perf.TradeStats{})

	if strings.Contains(b.String(), "profit factor") {
		t.Error("report printed trade detail for an empty trade ledger")
	}
}
