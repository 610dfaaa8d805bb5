package fetch

import (
	"context"
	"testing"
	"time"

	"backsim/internal/domain"
	"backsim/internal/store"
)

func cachedBars(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	d := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol:    "AAPL",
			Timestamp: d.AddDate(0, 0, i),
			Open:      100,
			Close:     101,
		}
	}
	return bars
}

func TestDailyBarsCacheOnly(t *testing.T) {
	ps := store.NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := cachedBars(5)
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	// No credentials, so the client must serve the cache without any API call.
	c := New("", "", "", ps, 60, 3)

	got, err := c.DailyBars(ctx, "AAPL", bars[0].Timestamp, bars[4].Timestamp)
	if err != nil {
		t.Fatalf("DailyBars returned error: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("DailyBars returned %d bars, want 5 from cache", len(got))
	}
}

func TestDailyBarsCacheOnlyEmptyCache(t *testing.T) {
	ps := store.NewParquetStore(t.TempDir())
	c := New("", "", "", ps, 60, 3)

	got, err := c.DailyBars(context.Background(), "MSFT",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DailyBars returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DailyBars returned %d bars from an empty cache, want 0", len(got))
	}
}

func TestCovers(t *testing.T) {
	bars := cachedBars(5) // 2024-03-04 .. 2024-03-08
	start := bars[0].Timestamp
	end := bars[4].Timestamp

	if !covers(bars, start, end) {
		t.Error("covers = false for exact range")
	}
	// A weekend gap at either edge still counts as covered.
	if !covers(bars, start.AddDate(0, 0, -2), end.AddDate(0, 0, 2)) {
		t.Error("covers = false within weekend slack")
	}
	if covers(bars, start.AddDate(0, 0, -30), end) {
		t.Error("covers = true for a range starting a month before the cache")
	}
	if covers(bars, start, end.AddDate(0, 0, 30)) {
		t.Error("covers = true for a range ending a month after the cache")
	}
	if covers(nil, start, end) {
		t.Error("covers = true for empty cache")
	}
}
