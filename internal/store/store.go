// Package store defines storage interfaces for cached bar data and
// persisted backtest results, with Parquet and SQLite implementations.
package store

import (
	"context"
	"time"

	"backsim/internal/domain"
	"backsim/internal/perf"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with any already stored.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end], sorted
	// by timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with cached bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// Run is one persisted backtest: its inputs, parameters, and results.
type Run struct {
	ID          int64
	Symbol      string
	Strategy    string
	Params      string
	Start       time.Time
	End         time.Time
	InitialCash float64
	FeeBps      float64
	SlippageBps float64
	Summary     perf.Summary
	Stats       perf.TradeStats
	CreatedAt   time.Time
}

// ResultStore persists completed backtest runs and their realized trades.
type ResultStore interface {
	// SaveRun persists a run with its trades and returns the assigned run ID.
	SaveRun(ctx context.Context, run *Run, trades []perf.Trade) (int64, error)

	// GetRun retrieves a run and its trades by ID.
	GetRun(ctx context.Context, id int64) (*Run, []perf.Trade, error)

	// ListRuns returns the most recent runs for a symbol, newest first, up to
	// limit. An empty symbol matches all runs.
	ListRuns(ctx context.Context, symbol string, limit int) ([]Run, error)
}
