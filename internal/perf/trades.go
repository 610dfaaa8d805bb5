// Package perf derives trade-level and portfolio-level performance
// statistics from a completed simulation ledger. All functions are pure and
// treat empty or degenerate inputs as well-defined zeros rather than errors.
package perf

import (
	"math"
	"time"

	"backsim/internal/sim"
)

// Trade is one fully closed long round trip: an entry matched to its exit.
type Trade struct {
	EntryDate  time.Time
	EntryPrice float64
	ExitDate   time.Time
	ExitPrice  float64
	Shares     float64
	PnL        float64
	Return     float64
}

// ExtractTrades scans the ledger in order and pairs each buy with the next
// sell. The model is long/flat with all-in sizing, so at most one position
// is open at a time. An entry still open at the end of the ledger is an
// unrealized position and yields no record.
func ExtractTrades(l *sim.Ledger) []Trade {
	var trades []Trade
	var entry *Trade

	for i := range l.Rows {
		row := &l.Rows[i]
		if math.IsNaN(row.ExecPrice) || row.SharesTraded == 0 {
			continue
		}
		switch {
		case row.SharesTraded > 0 && entry == nil:
			entry = &Trade{
				EntryDate:  row.Time,
				EntryPrice: row.ExecPrice,
				Shares:     row.SharesTraded,
			}
		case row.SharesTraded < 0 && entry != nil:
			entry.ExitDate = row.Time
			entry.ExitPrice = row.ExecPrice
			entry.PnL = (entry.ExitPrice - entry.EntryPrice) * entry.Shares
			entry.Return = entry.ExitPrice/entry.EntryPrice - 1
			trades = append(trades, *entry)
			entry = nil
		}
	}
	return trades
}

// TradeStats summarizes a realized trade ledger.
type TradeStats struct {
	NumTrades    int
	WinRate      float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64
}

// ComputeTradeStats derives win/loss statistics from realized trades. The
// profit factor is +Inf when there are wins and no losses, and 0 when there
// are no wins at all.
func ComputeTradeStats(trades []Trade) TradeStats {
	if len(trades) == 0 {
		return TradeStats{}
	}

	var wins, losses int
	var totalWin, totalLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			totalWin += t.PnL
		} else if t.PnL < 0 {
			losses++
			totalLoss += -t.PnL
		}
	}

	stats := TradeStats{
		NumTrades: len(trades),
		WinRate:   float64(wins) / float64(len(trades)),
	}
	if wins > 0 {
		stats.AvgWin = totalWin / float64(wins)
	}
	if losses > 0 {
		stats.AvgLoss = -totalLoss / float64(losses)
	}
	switch {
	case totalLoss > 0:
		stats.ProfitFactor = totalWin / totalLoss
	case totalWin > 0:
		stats.ProfitFactor = math.Inf(1)
	}
	return stats
}
