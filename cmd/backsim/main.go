// Command backsim runs a single-asset, long/flat backtest: it loads daily
// bars from the local Parquet cache (fetching from Alpaca when configured),
// builds the position signal for the chosen strategy, simulates it, prints a
// performance report, and persists the run to the results database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"backsim/internal/config"
	"backsim/internal/domain"
	"backsim/internal/fetch"
	"backsim/internal/perf"
	"backsim/internal/report"
	"backsim/internal/series"
	"backsim/internal/sim"
	"backsim/internal/store"
	"backsim/internal/strategy"
	"backsim/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		symbol     = flag.String("symbol", "", "ticker symbol (required)")
		startStr   = flag.String("start", "", "start date YYYY-MM-DD (required)")
		endStr     = flag.String("end", "", "end date YYYY-MM-DD (required)")
		stratName  = flag.String("strategy", "sma-cross", "strategy name (sma-cross, mean-reversion)")

		fast = flag.Int("fast", 20, "sma-cross: fast period")
		slow = flag.Int("slow", 50, "sma-cross: slow period")

		lookback = flag.Int("lookback", 20, "mean-reversion: z-score lookback")
		entry    = flag.Float64("entry", 2.0, "mean-reversion: entry z-score threshold")
		exit     = flag.Float64("exit", 0.5, "mean-reversion: exit z-score threshold")

		cash        = flag.Float64("cash", 0, "initial cash (0 = config default)")
		feeBps      = flag.Float64("fee-bps", -1, "fee rate in basis points (-1 = config default)")
		slippageBps = flag.Float64("slippage-bps", -1, "slippage in basis points (-1 = config default)")
		useOpen     = flag.Bool("use-open", false, "execute at next bar open instead of next bar close")
		align       = flag.Bool("align", false, "shift the signal forward one bar before simulating")
		noSave      = flag.Bool("no-save", false, "skip persisting the run to the results database")
	)
	flag.Parse()

	if *symbol == "" || *startStr == "" || *endStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	log := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(log)

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		fatalf("parsing start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		fatalf("parsing end date: %v", err)
	}

	simCfg := sim.Config{
		InitialCash: cfg.Backtest.InitialCash,
		FeeBps:      cfg.Backtest.FeeBps,
		SlippageBps: cfg.Backtest.SlippageBps,
		AlignSignal: cfg.Backtest.AlignSignal || *align,
	}
	if *cash > 0 {
		simCfg.InitialCash = *cash
	}
	if *feeBps >= 0 {
		simCfg.FeeBps = *feeBps
	}
	if *slippageBps >= 0 {
		simCfg.SlippageBps = *slippageBps
	}

	ctx := context.Background()

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	fetcher := fetch.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
		bars, cfg.Fetch.RateLimitPerMin, cfg.Fetch.MaxAttempts)

	barData, err := fetcher.DailyBars(ctx, *symbol, start, end)
	if err != nil {
		fatalf("loading bars: %v", err)
	}
	if len(barData) == 0 {
		fatalf("no bars for %s in %s..%s (cache empty and no Alpaca credentials configured?)",
			*symbol, *startStr, *endStr)
	}

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewSMACross(*fast, *slow))
	registry.Register(strategy.NewMeanReversion(*lookback, *entry, *exit))

	strat, ok := registry.Get(*stratName)
	if !ok {
		fatalf("unknown strategy %q (available: %v)", *stratName, registry.List())
	}

	closePx := domain.CloseSeries(barData)
	sig, err := strat.Signal(closePx)
	if err != nil {
		fatalf("building signal: %v", err)
	}

	var openPx *series.Series
	if *useOpen {
		o := domain.OpenSeries(barData)
		openPx = &o
	}

	ledger, err := sim.Run(closePx, sig, openPx, simCfg)
	if err != nil {
		fatalf("simulation: %v", err)
	}

	trades := perf.ExtractTrades(ledger)
	stats := perf.ComputeTradeStats(trades)
	equity := ledger.Equity()
	summary := perf.Summarize(equity, cfg.Backtest.RiskFreeDaily)

	report.Render(os.Stdout, report.Header{
		Symbol:      *symbol,
		Strategy:    strat.Name(),
		Start:       barData[0].Timestamp,
		End:         barData[len(barData)-1].Timestamp,
		InitialCash: simCfg.InitialCash,
		FinalEquity: equity.Values[equity.Len()-1],
	}, summary, stats)

	if *noSave || cfg.Storage.SQLitePath == "" {
		return
	}

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		fatalf("opening results database: %v", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, &store.Run{
		Symbol:      *symbol,
		Strategy:    strat.Name(),
		Params:      paramString(strat.Name(), *fast, *slow, *lookback, *entry, *exit),
		Start:       barData[0].Timestamp,
		End:         barData[len(barData)-1].Timestamp,
		InitialCash: simCfg.InitialCash,
		FeeBps:      simCfg.FeeBps,
		SlippageBps: simCfg.SlippageBps,
		Summary:     summary,
		Stats:       stats,
	}, trades)
	if err != nil {
		fatalf("saving run: %v", err)
	}
	log.Info("saved backtest run", "id", id, "symbol", *symbol, "strategy", strat.Name())
}

func paramString(name string, fast, slow, lookback int, entry, exit float64) string {
	if name == "mean-reversion" {
		return fmt.Sprintf("lookback=%d entry=%.2f exit=%.2f", lookback, entry, exit)
	}
	return fmt.Sprintf("fast=%d slow=%d", fast, slow)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "backsim: "+format+"\n", args...)
	os.Exit(1)
}
