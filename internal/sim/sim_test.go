package sim

import (
	"math"
	"testing"
	"time"

	"backsim/internal/series"
)

// bdays returns n consecutive business days starting 2022-01-03 (a Monday).
func bdays(n int) []time.Time {
	times := make([]time.Time, 0, n)
	d := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	for len(times) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			times = append(times, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return times
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFillPrice(t *testing.T) {
	if got := FillPrice(100, 50, Buy); !approx(got, 100.5) {
		t.Errorf("buy fill = %v, want 100.5", got)
	}
	if got := FillPrice(100, 50, Sell); !approx(got, 99.5) {
		t.Errorf("sell fill = %v, want 99.5", got)
	}
	if got := FillPrice(100, 0, Buy); !approx(got, 100) {
		t.Errorf("zero-slippage fill = %v, want 100", got)
	}
}

// The canonical regression fixture: 7 business days, prices 100..106,
// signal goes long on day 2 and flat on day 5, no fees or slippage.
// The buy fills at close[2]=102 and the sell at close[5]=105.
func TestRunCanonicalScenario(t *testing.T) {
	times := bdays(7)
	close := series.Series{Times: times, Values: []float64{100, 101, 102, 103, 104, 105, 106}}
	signal := series.Signal{Times: times, Values: []int{0, 1, 1, 1, 0, 0, 0}}

	ledger, err := Run(close, signal, nil, Config{InitialCash: 1000})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(ledger.Rows) != 7 {
		t.Fatalf("ledger has %d rows, want 7", len(ledger.Rows))
	}

	shares := 1000.0 / 102.0

	buy := ledger.Rows[1]
	if !approx(buy.ExecPrice, 102) {
		t.Errorf("buy exec price = %v, want 102", buy.ExecPrice)
	}
	if !approx(buy.SharesTraded, shares) {
		t.Errorf("buy shares traded = %v, want %v", buy.SharesTraded, shares)
	}
	if !approx(buy.Cash, 0) {
		t.Errorf("cash after all-in buy = %v, want 0", buy.Cash)
	}
	if !approx(buy.Holdings, shares*101) {
		t.Errorf("holdings after buy = %v, want %v", buy.Holdings, shares*101)
	}

	// Holding rows carry shares and cash forward unchanged.
	for _, i := range []int{2, 3} {
		row := ledger.Rows[i]
		if row.SharesTraded != 0 {
			t.Errorf("row %d traded %v shares, want 0", i, row.SharesTraded)
		}
		if !approx(row.SharesHeld, shares) || !approx(row.Cash, 0) {
			t.Errorf("row %d state changed without a transition", i)
		}
	}

	sell := ledger.Rows[4]
	if !approx(sell.ExecPrice, 105) {
		t.Errorf("sell exec price = %v, want 105", sell.ExecPrice)
	}
	if !approx(sell.SharesTraded, -shares) {
		t.Errorf("sell shares traded = %v, want %v", sell.SharesTraded, -shares)
	}

	wantFinal := shares * 105
	for _, i := range []int{4, 5, 6} {
		if got := ledger.Rows[i].Equity; !approx(got, wantFinal) {
			t.Errorf("row %d equity = %v, want %v", i, got, wantFinal)
		}
	}
}

func TestRunEquityIdentity(t *testing.T) {
	times := bdays(7)
	close := series.Series{Times: times, Values: []float64{100, 101, 102, 103, 104, 105, 106}}
	signal := series.Signal{Times: times, Values: []int{0, 1, 1, 1, 0, 1, 1}}

	ledger, err := Run(close, signal, nil, Config{InitialCash: 1000, FeeBps: 10, SlippageBps: 5})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i, row := range ledger.Rows {
		if !approx(row.Equity, row.Cash+row.Holdings) {
			t.Errorf("row %d: equity %v != cash %v + holdings %v", i, row.Equity, row.Cash, row.Holdings)
		}
	}
}

func TestRunFlatSignalPreservesCash(t *testing.T) {
	times := bdays(5)
	close := series.Series{Times: times, Values: []float64{100, 90, 110, 95, 105}}
	signal := series.Signal{Times: times, Values: []int{0, 0, 0, 0, 0}}

	ledger, err := Run(close, signal, nil, Config{InitialCash: 5000})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i, row := range ledger.Rows {
		if !approx(row.Cash, 5000) || !approx(row.Equity, 5000) {
			t.Errorf("row %d: cash=%v equity=%v, want 5000 for an always-flat run", i, row.Cash, row.Equity)
		}
		if row.SharesTraded != 0 || !math.IsNaN(row.ExecPrice) {
			t.Errorf("row %d recorded a trade on a flat run", i)
		}
	}
}

func TestRunFrictionlessRoundTrip(t *testing.T) {
	times := bdays(4)
	close := series.Series{Times: times, Values: []float64{100, 100, 100, 100}}
	signal := series.Signal{Times: times, Values: []int{1, 0, 0, 0}}

	ledger, err := Run(close, signal, nil, Config{InitialCash: 1000})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	final := ledger.Rows[len(ledger.Rows)-1].Equity
	if !approx(final, 1000) {
		t.Errorf("frictionless round trip over flat prices: final equity = %v, want 1000", final)
	}
}

// A signal change on the final bar has no next-bar reference price, so it
// must never execute.
func TestRunLastBarNeverExecutes(t *testing.T) {
	times := bdays(4)
	close := series.Series{Times: times, Values: []float64{100, 101, 102, 103}}
	signal := series.Signal{Times: times, Values: []int{0, 0, 0, 1}}

	ledger, err := Run(close, signal, nil, Config{InitialCash: 1000})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	last := ledger.Rows[len(ledger.Rows)-1]
	if last.Position != 1 {
		t.Errorf("last row position = %d, want the signal recorded as-is", last.Position)
	}
	if last.SharesTraded != 0 || !math.IsNaN(last.ExecPrice) {
		t.Error("last bar executed a trade despite having no reference price")
	}
	if !approx(last.Cash, 1000) || !approx(last.Equity, 1000) {
		t.Errorf("last bar changed portfolio state: cash=%v equity=%v", last.Cash, last.Equity)
	}
}

func TestRunFeeMonotonicity(t *testing.T) {
	times := bdays(7)
	close := series.Series{Times: times, Values: []float64{100, 101, 102, 103, 104, 105, 106}}
	signal := series.Signal{Times: times, Values: []int{0, 1, 1, 1, 0, 0, 0}}

	var prev float64 = math.Inf(1)
	for _, fee := range []float64{0, 5, 25, 100} {
		ledger, err := Run(close, signal, nil, Config{InitialCash: 1000, FeeBps: fee})
		if err != nil {
			t.Fatalf("Run(fee=%v) returned error: %v", fee, err)
		}
		final := ledger.Rows[len(ledger.Rows)-1].Equity
		if final >= prev {
			t.Errorf("fee=%v bps: final equity %v not strictly below %v", fee, final, prev)
		}
		prev = final
	}
}

func TestRunUsesOpenPricesWhenSupplied(t *testing.T) {
	times := bdays(3)
	close := series.Series{Times: times, Values: []float64{100, 101, 102}}
	open := series.Series{Times: times, Values: []float64{200, 201, 202}}
	signal := series.Signal{Times: times, Values: []int{0, 1, 1}}

	ledger, err := Run(close, signal, &open, Config{InitialCash: 1000})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := ledger.Rows[1].ExecPrice; !approx(got, 202) {
		t.Errorf("exec price = %v, want next bar open 202", got)
	}
	// Mark-to-market still uses close.
	shares := 1000.0 / 202.0
	if got := ledger.Rows[1].Holdings; !approx(got, shares*101) {
		t.Errorf("holdings = %v, want %v (marked at close)", got, shares*101)
	}
}

func TestRunAlignSignal(t *testing.T) {
	times := bdays(4)
	close := series.Series{Times: times, Values: []float64{100, 101, 102, 103}}
	signal := series.Signal{Times: times, Values: []int{1, 1, 1, 1}}

	ledger, err := Run(close, signal, nil, Config{InitialCash: 1000, AlignSignal: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ledger.Rows[0].Position != 0 {
		t.Errorf("row 0 position = %d, want 0 after shifting", ledger.Rows[0].Position)
	}
	// The shifted signal turns long at bar 1, filling at close[2].
	if got := ledger.Rows[1].ExecPrice; !approx(got, 102) {
		t.Errorf("exec price = %v, want 102", got)
	}
}

func TestRunValidation(t *testing.T) {
	times := bdays(3)
	close := series.Series{Times: times, Values: []float64{100, 101, 102}}
	okSignal := series.Signal{Times: times, Values: []int{0, 1, 1}}

	tests := []struct {
		name   string
		close  series.Series
		signal series.Signal
		open   *series.Series
		cfg    Config
	}{
		{
			name:   "zero initial cash",
			close:  close,
			signal: okSignal,
			cfg:    Config{InitialCash: 0},
		},
		{
			name:   "negative fee",
			close:  close,
			signal: okSignal,
			cfg:    Config{InitialCash: 1000, FeeBps: -1},
		},
		{
			name:   "negative slippage",
			close:  close,
			signal: okSignal,
			cfg:    Config{InitialCash: 1000, SlippageBps: -1},
		},
		{
			name:   "non-binary signal",
			close:  close,
			signal: series.Signal{Times: times, Values: []int{0, 2, 1}},
			cfg:    Config{InitialCash: 1000},
		},
		{
			name:   "index length mismatch",
			close:  close,
			signal: series.Signal{Times: times[:2], Values: []int{0, 1}},
			cfg:    Config{InitialCash: 1000},
		},
		{
			name:   "open index mismatch",
			close:  close,
			signal: okSignal,
			open:   &series.Series{Times: bdays(2), Values: []float64{1, 2}},
			cfg:    Config{InitialCash: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, err := Run(tt.close, tt.signal, tt.open, tt.cfg)
			if err == nil {
				t.Fatal("Run should have returned an error")
			}
			if ledger != nil {
				t.Error("Run returned a partial ledger alongside an error")
			}
		})
	}
}

func TestStepIsPure(t *testing.T) {
	st := state{cash: 1000}
	in := stepInput{
		time:     bdays(1)[0],
		position: 1,
		closePx:  100,
		refPx:    100,
	}

	st1, row1 := step(st, in)
	st2, row2 := step(st, in)

	if st1 != st2 || row1 != row2 {
		t.Error("step is not deterministic for identical inputs")
	}
	if st.cash != 1000 || st.shares != 0 {
		t.Error("step mutated its input state")
	}
}
