// Command backsim-fetch downloads daily bars from the Alpaca market-data API
// and merges them into the local Parquet cache, so later backtests run
// offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"backsim/internal/config"
	"backsim/internal/fetch"
	"backsim/internal/store"
	"backsim/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		symbols    = flag.String("symbols", "", "comma-separated ticker symbols (required)")
		startStr   = flag.String("start", "", "start date YYYY-MM-DD (required)")
		endStr     = flag.String("end", "", "end date YYYY-MM-DD (required)")
	)
	flag.Parse()

	if *symbols == "" || *startStr == "" || *endStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	log := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(log)

	if cfg.Alpaca.APIKey == "" {
		fatalf("no Alpaca credentials configured (set APCA_API_KEY_ID / APCA_API_SECRET_KEY)")
	}

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		fatalf("parsing start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		fatalf("parsing end date: %v", err)
	}

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	fetcher := fetch.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
		bars, cfg.Fetch.RateLimitPerMin, cfg.Fetch.MaxAttempts)

	ctx := context.Background()
	for _, symbol := range strings.Split(*symbols, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}
		fetched, err := fetcher.DailyBars(ctx, symbol, start, end)
		if err != nil {
			fatalf("fetching %s: %v", symbol, err)
		}
		log.Info("cached daily bars", "symbol", symbol, "count", len(fetched))
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "backsim-fetch: "+format+"\n", args...)
	os.Exit(1)
}
