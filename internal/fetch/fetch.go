// Package fetch retrieves daily bar data from the Alpaca market-data API and
// caches it through a BarStore, so repeated backtests over the same range
// are served from disk.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"backsim/internal/domain"
	"backsim/internal/store"
	"backsim/internal/util"
)

// coverageSlack absorbs weekends and holiday gaps when deciding whether the
// cache already covers a requested range.
const coverageSlack = 4 * 24 * time.Hour

// Client fetches and caches daily bars. With no API credentials it operates
// in cache-only mode.
type Client struct {
	md          *marketdata.Client // nil = cache-only
	bars        store.BarStore
	limiter     *util.RateLimiter
	maxAttempts int
	log         *slog.Logger
}

// New creates a Client writing through to the given BarStore. apiKey may be
// empty, in which case DailyBars serves only what the cache already holds.
func New(apiKey, apiSecret, dataURL string, bars store.BarStore, ratePerMin, maxAttempts int) *Client {
	c := &Client{
		bars:        bars,
		limiter:     util.NewRateLimiter(ratePerMin),
		maxAttempts: maxAttempts,
		log:         slog.Default().With("component", "fetch"),
	}
	if apiKey != "" {
		opts := marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}
		if dataURL != "" {
			opts.BaseURL = dataURL
		}
		c.md = marketdata.NewClient(opts)
	}
	return c
}

// DailyBars returns daily bars for symbol within [start, end]. Cached data
// covering the range is served directly; otherwise the range is fetched,
// merged into the cache, and re-read.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	cached, err := c.bars.ReadBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading cached bars for %s: %w", symbol, err)
	}

	if c.md == nil || covers(cached, start, end) {
		return cached, nil
	}

	fetched, err := c.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := c.bars.WriteBars(ctx, fetched); err != nil {
		return nil, fmt.Errorf("caching bars for %s: %w", symbol, err)
	}
	c.log.Info("fetched daily bars", "symbol", symbol, "count", len(fetched))

	return c.bars.ReadBars(ctx, symbol, start, end)
}

func (c *Client) fetch(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var raw []marketdata.Bar
	err := util.Retry(ctx, c.maxAttempts, time.Second, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		raw, err = c.md.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Adjustment: marketdata.Raw,
			Start:      start,
			End:        end,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching daily bars for %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  b.Timestamp.UTC(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     int64(b.Volume),
			TradeCount: int64(b.TradeCount),
			VWAP:       b.VWAP,
		})
	}
	return bars, nil
}

// covers reports whether cached bars span [start, end] within weekend slack.
func covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	first := bars[0].Timestamp
	last := bars[len(bars)-1].Timestamp
	return !first.After(start.Add(coverageSlack)) && !last.Before(end.Add(-coverageSlack))
}
