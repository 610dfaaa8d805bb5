// Package sim implements the bar-by-bar portfolio simulation engine. It
// replays a 0/1 position signal against a price series and emits a per-bar
// ledger of cash, holdings, fees, and equity.
//
// Execution is strictly no-lookahead: a position change signalled at bar i
// fills at bar i+1's reference price (open if supplied, else close). The
// last bar therefore never executes a trade. Sizing is all-in: a buy spends
// the entire cash balance, a sell liquidates the entire position.
package sim

import (
	"fmt"
	"math"
	"time"

	"backsim/internal/series"
)

// Side is the direction of a fill.
type Side int

const (
	Buy Side = iota
	Sell
)

// FillPrice returns the effective fill price for a trade against the given
// reference price. Aggressive orders pay away from the quote: buys fill
// above the reference, sells below.
func FillPrice(ref, slippageBps float64, side Side) float64 {
	if side == Buy {
		return ref * (1 + slippageBps/10_000)
	}
	return ref * (1 - slippageBps/10_000)
}

// Config holds the simulation parameters.
type Config struct {
	InitialCash float64
	FeeBps      float64
	SlippageBps float64

	// AlignSignal shifts the signal forward one bar before use, for callers
	// whose signal is computed on bar close but has not yet been re-aligned
	// to the bar it can first act on.
	AlignSignal bool
}

// Row is one per-bar ledger entry. ExecPrice is NaN on bars where no trade
// executed. SharesTraded is positive for a buy, negative for a sell, zero
// otherwise.
type Row struct {
	Time         time.Time
	Position     int
	SharesHeld   float64
	SharesTraded float64
	ExecPrice    float64
	Cash         float64
	Holdings     float64
	Equity       float64
	Fees         float64
}

// Ledger is the time-ordered per-bar output of a simulation run. It is
// freshly allocated by Run and shares no storage with its inputs.
type Ledger struct {
	Rows []Row
}

// Equity returns the equity column as a time-indexed series.
func (l *Ledger) Equity() series.Series {
	times := make([]time.Time, len(l.Rows))
	values := make([]float64, len(l.Rows))
	for i := range l.Rows {
		times[i] = l.Rows[i].Time
		values[i] = l.Rows[i].Equity
	}
	return series.Series{Times: times, Values: values}
}

// state is the engine state threaded through the bar fold: running cash,
// running share count, and the previous bar's position.
type state struct {
	cash    float64
	shares  float64
	lastPos int
}

// stepInput is everything one bar contributes to the fold.
type stepInput struct {
	time     time.Time
	position int
	closePx  float64
	// refPx is the next bar's execution reference price, NaN on the last bar.
	refPx       float64
	feeRate     float64
	slippageBps float64
}

// step advances the engine by one bar and returns the new state plus the
// emitted ledger row. It is a pure function of (state, input).
func step(st state, in stepInput) (state, Row) {
	row := Row{
		Time:      in.time,
		Position:  in.position,
		ExecPrice: math.NaN(),
	}

	if !math.IsNaN(in.refPx) && in.position != st.lastPos {
		switch {
		case in.position == 1 && st.lastPos == 0:
			// Buy the maximum affordable size; fees scale with notional, so
			// the effective cost per share folds the fee rate in.
			px := FillPrice(in.refPx, in.slippageBps, Buy)
			costPerShare := px * (1 + in.feeRate)
			bought := st.cash / costPerShare
			notional := bought * px
			fees := in.feeRate * notional
			st.cash -= notional + fees
			st.shares += bought
			row.SharesTraded = bought
			row.ExecPrice = px
			row.Fees = fees

		case in.position == 0 && st.lastPos == 1:
			px := FillPrice(in.refPx, in.slippageBps, Sell)
			notional := st.shares * px
			fees := in.feeRate * notional
			st.cash += notional - fees
			row.SharesTraded = -st.shares
			st.shares = 0
			row.ExecPrice = px
			row.Fees = fees
		}
	}

	row.SharesHeld = st.shares
	row.Cash = st.cash
	row.Holdings = st.shares * in.closePx
	row.Equity = row.Cash + row.Holdings
	st.lastPos = in.position
	return st, row
}

// Run simulates the signal against the close series and returns the per-bar
// ledger. open may be nil, in which case the close price doubles as the
// execution reference. All inputs are treated as read-only.
//
// Malformed inputs (index mismatch, non-binary signal, non-positive initial
// cash, negative rates) fail before any simulation state is built; a partial
// ledger is never returned.
func Run(close series.Series, signal series.Signal, open *series.Series, cfg Config) (*Ledger, error) {
	if err := validate(close, signal, open, cfg); err != nil {
		return nil, err
	}

	positions := signal.Values
	if cfg.AlignSignal {
		positions = shiftForward(positions)
	}

	// Execution reference source: open prices when supplied, else close.
	refSrc := close.Values
	if open != nil {
		refSrc = open.Values
	}

	n := close.Len()
	ledger := &Ledger{Rows: make([]Row, 0, n)}
	st := state{cash: cfg.InitialCash}
	feeRate := cfg.FeeBps / 10_000

	for i := 0; i < n; i++ {
		refPx := math.NaN()
		if i+1 < n {
			refPx = refSrc[i+1]
		}

		var row Row
		st, row = step(st, stepInput{
			time:        close.Times[i],
			position:    positions[i],
			closePx:     close.Values[i],
			refPx:       refPx,
			feeRate:     feeRate,
			slippageBps: cfg.SlippageBps,
		})
		ledger.Rows = append(ledger.Rows, row)
	}

	return ledger, nil
}

func validate(close series.Series, signal series.Signal, open *series.Series, cfg Config) error {
	if cfg.InitialCash <= 0 {
		return fmt.Errorf("sim: initial cash must be positive, got %v", cfg.InitialCash)
	}
	if cfg.FeeBps < 0 {
		return fmt.Errorf("sim: fee rate must be non-negative, got %v bps", cfg.FeeBps)
	}
	if cfg.SlippageBps < 0 {
		return fmt.Errorf("sim: slippage rate must be non-negative, got %v bps", cfg.SlippageBps)
	}
	if err := close.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := signal.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := series.Aligned(close, signal); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if open != nil {
		if err := series.SameIndex(close, *open); err != nil {
			return fmt.Errorf("sim: open prices: %w", err)
		}
	}
	return nil
}

// shiftForward moves every signal value one bar later; the first bar becomes
// flat. The input slice is not modified.
func shiftForward(values []int) []int {
	shifted := make([]int, len(values))
	if len(values) > 1 {
		copy(shifted[1:], values[:len(values)-1])
	}
	return shifted
}
