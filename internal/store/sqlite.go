package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"backsim/internal/perf"
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore implements ResultStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol           TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	params           TEXT NOT NULL,
	start_date       TEXT NOT NULL,
	end_date         TEXT NOT NULL,
	initial_cash     REAL NOT NULL,
	fee_bps          REAL NOT NULL,
	slippage_bps     REAL NOT NULL,
	total_return     REAL NOT NULL,
	cagr             REAL NOT NULL,
	vol_ann          REAL NOT NULL,
	sharpe           REAL NOT NULL,
	sortino          REAL NOT NULL,
	max_drawdown     REAL NOT NULL,
	longest_drawdown INTEGER NOT NULL,
	num_trades       INTEGER NOT NULL,
	win_rate         REAL NOT NULL,
	avg_win          REAL NOT NULL,
	avg_loss         REAL NOT NULL,
	profit_factor    REAL NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	entry_date  TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_date   TEXT NOT NULL,
	exit_price  REAL NOT NULL,
	shares      REAL NOT NULL,
	pnl         REAL NOT NULL,
	ret         REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, created_at);
CREATE INDEX IF NOT EXISTS idx_run_trades_run ON run_trades(run_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists the run and its realized trades in one transaction and
// returns the assigned run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, trades []perf.Trade) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			symbol, strategy, params, start_date, end_date,
			initial_cash, fee_bps, slippage_bps,
			total_return, cagr, vol_ann, sharpe, sortino,
			max_drawdown, longest_drawdown,
			num_trades, win_rate, avg_win, avg_loss, profit_factor,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.Strategy, run.Params,
		run.Start.UTC().Format(time.RFC3339), run.End.UTC().Format(time.RFC3339),
		run.InitialCash, run.FeeBps, run.SlippageBps,
		run.Summary.TotalReturn, run.Summary.CAGR, run.Summary.AnnualizedVol,
		run.Summary.Sharpe, run.Summary.Sortino,
		run.Summary.MaxDrawdown, run.Summary.LongestDrawdown,
		run.Stats.NumTrades, run.Stats.WinRate, run.Stats.AvgWin, run.Stats.AvgLoss,
		run.Stats.ProfitFactor,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := range trades {
		t := &trades[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_trades (run_id, entry_date, entry_price, exit_date, exit_price, shares, pnl, ret)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			t.EntryDate.UTC().Format(time.RFC3339), t.EntryPrice,
			t.ExitDate.UTC().Format(time.RFC3339), t.ExitPrice,
			t.Shares, t.PnL, t.Return,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRun retrieves a run and its trades by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, []perf.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, strategy, params, start_date, end_date,
		       initial_cash, fee_bps, slippage_bps,
		       total_return, cagr, vol_ann, sharpe, sortino,
		       max_drawdown, longest_drawdown,
		       num_trades, win_rate, avg_win, avg_loss, profit_factor,
		       created_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_date, entry_price, exit_date, exit_price, shares, pnl, ret
		FROM run_trades WHERE run_id = ? ORDER BY entry_date`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var trades []perf.Trade
	for rows.Next() {
		var t perf.Trade
		var entry, exit string
		if err := rows.Scan(&entry, &t.EntryPrice, &exit, &t.ExitPrice, &t.Shares, &t.PnL, &t.Return); err != nil {
			return nil, nil, err
		}
		if t.EntryDate, err = time.Parse(time.RFC3339, entry); err != nil {
			return nil, nil, fmt.Errorf("parsing entry date: %w", err)
		}
		if t.ExitDate, err = time.Parse(time.RFC3339, exit); err != nil {
			return nil, nil, fmt.Errorf("parsing exit date: %w", err)
		}
		trades = append(trades, t)
	}
	return run, trades, rows.Err()
}

// ListRuns returns the most recent runs for a symbol, newest first. An empty
// symbol matches all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]Run, error) {
	query := `
		SELECT id, symbol, strategy, params, start_date, end_date,
		       initial_cash, fee_bps, slippage_bps,
		       total_return, cagr, vol_ann, sharpe, sortino,
		       max_drawdown, longest_drawdown,
		       num_trades, win_rate, avg_win, avg_loss, profit_factor,
		       created_at
		FROM runs`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var start, end, created string
	err := sc.Scan(
		&run.ID, &run.Symbol, &run.Strategy, &run.Params, &start, &end,
		&run.InitialCash, &run.FeeBps, &run.SlippageBps,
		&run.Summary.TotalReturn, &run.Summary.CAGR, &run.Summary.AnnualizedVol,
		&run.Summary.Sharpe, &run.Summary.Sortino,
		&run.Summary.MaxDrawdown, &run.Summary.LongestDrawdown,
		&run.Stats.NumTrades, &run.Stats.WinRate, &run.Stats.AvgWin, &run.Stats.AvgLoss,
		&run.Stats.ProfitFactor,
		&created,
	)
	if err != nil {
		return nil, err
	}
	if run.Start, err = time.Parse(time.RFC3339, start); err != nil {
		return nil, fmt.Errorf("parsing start date: %w", err)
	}
	if run.End, err = time.Parse(time.RFC3339, end); err != nil {
		return nil, fmt.Errorf("parsing end date: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &run, nil
}
