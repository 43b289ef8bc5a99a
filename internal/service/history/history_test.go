package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/logger"
)

type fakeHistorySource struct {
	bars  []models.Bar
	err   error
	calls int
}

func (f *fakeHistorySource) History(_ context.Context, _ string, _, _ time.Time, _ string) ([]models.Bar, error) {
	f.calls++
	return f.bars, f.err
}

type fakeQuoteSource struct {
	quote *models.Quote
	err   error
	calls int
}

func (f *fakeQuoteSource) Quote(_ context.Context, _ string) (*models.Quote, error) {
	f.calls++
	return f.quote, f.err
}

type fakeBarStore struct {
	bars   []models.Bar
	stored int
}

func (f *fakeBarStore) StoreBars(_ context.Context, _, _ string, bars []models.Bar) error {
	f.stored += len(bars)
	return nil
}

func (f *fakeBarStore) QueryBars(_ context.Context, _, _ string, _, _ time.Time) ([]models.Bar, error) {
	return f.bars, nil
}

func (f *fakeBarStore) Health(_ context.Context) error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testBars(n int) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Time: base.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		}
	}
	return bars
}

func TestGetHistoryCachesResults(t *testing.T) {
	src := &fakeHistorySource{bars: testBars(5)}
	svc := NewService(src, nil, cache.NewMemoryCache(), testLogger(t))

	ctx := context.Background()
	first, err := svc.GetHistory(ctx, "TCS.NS", "1mo", "1d")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := svc.GetHistory(ctx, "TCS.NS", "1mo", "1d")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("unexpected lengths %d/%d", len(first), len(second))
	}
	if src.calls != 1 {
		t.Fatalf("expected single upstream call, got %d", src.calls)
	}
}

func TestGetHistoryFallsBackToStore(t *testing.T) {
	src := &fakeHistorySource{err: errors.New("boom")}
	store := &fakeBarStore{bars: testBars(3)}
	svc := NewService(src, nil, cache.NewMemoryCache(), testLogger(t), WithBarStore(store))

	bars, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 persisted bars, got %d", len(bars))
	}
}

func TestGetHistoryUsesFallbackSource(t *testing.T) {
	primary := &fakeHistorySource{err: errors.New("boom")}
	fallback := &fakeHistorySource{bars: testBars(4)}
	store := &fakeBarStore{}
	svc := NewService(primary, nil, cache.NewMemoryCache(), testLogger(t),
		WithFallbackSource(fallback), WithBarStore(store))

	bars, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 4 {
		t.Fatalf("expected 4 fallback bars, got %d", len(bars))
	}
	if fallback.calls != 1 {
		t.Fatalf("expected one fallback call, got %d", fallback.calls)
	}
}

func TestGetHistoryEmptyPrimaryUsesFallbackSource(t *testing.T) {
	primary := &fakeHistorySource{}
	fallback := &fakeHistorySource{bars: testBars(2)}
	svc := NewService(primary, nil, cache.NewMemoryCache(), testLogger(t),
		WithFallbackSource(fallback))

	bars, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 fallback bars, got %d", len(bars))
	}
}

func TestGetHistoryFallbackRateLimitPropagates(t *testing.T) {
	primary := &fakeHistorySource{err: errors.New("boom")}
	fallback := &fakeHistorySource{err: &models.RateLimitedError{Provider: "finnhub", RetryAfter: 30}}
	store := &fakeBarStore{bars: testBars(3)}
	svc := NewService(primary, nil, cache.NewMemoryCache(), testLogger(t),
		WithFallbackSource(fallback), WithBarStore(store))

	_, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	var rateErr *models.RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
}

func TestGetHistoryFailedFallbackFallsBackToStore(t *testing.T) {
	primary := &fakeHistorySource{err: errors.New("boom")}
	fallback := &fakeHistorySource{err: errors.New("also down")}
	store := &fakeBarStore{bars: testBars(3)}
	svc := NewService(primary, nil, cache.NewMemoryCache(), testLogger(t),
		WithFallbackSource(fallback), WithBarStore(store))

	bars, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 persisted bars, got %d", len(bars))
	}
	if fallback.calls != 1 {
		t.Fatalf("expected one fallback call, got %d", fallback.calls)
	}
}

func TestGetHistoryUnavailableWithoutStore(t *testing.T) {
	src := &fakeHistorySource{err: errors.New("boom")}
	svc := NewService(src, nil, cache.NewMemoryCache(), testLogger(t))

	_, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	if !errors.Is(err, models.ErrHistoryUnavailable) {
		t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
	}
}

func TestGetHistoryPropagatesRateLimit(t *testing.T) {
	src := &fakeHistorySource{err: &models.RateLimitedError{Provider: "yahoo", RetryAfter: 60}}
	store := &fakeBarStore{bars: testBars(3)}
	svc := NewService(src, nil, cache.NewMemoryCache(), testLogger(t), WithBarStore(store))

	_, err := svc.GetHistory(context.Background(), "TCS.NS", "1mo", "1d")
	var rateErr *models.RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
}

func TestGetQuoteTriesSourcesInOrder(t *testing.T) {
	broken := &fakeQuoteSource{err: errors.New("down")}
	working := &fakeQuoteSource{quote: &models.Quote{Ticker: "TCS.NS", Price: 4200}}

	svc := NewService(&fakeHistorySource{}, []QuoteSource{broken, working},
		cache.NewMemoryCache(), testLogger(t))

	q, err := svc.GetQuote(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Price != 4200 {
		t.Fatalf("unexpected price %v", q.Price)
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Fatalf("expected both sources consulted once, got %d/%d", broken.calls, working.calls)
	}
}

func TestGetQuoteCaches(t *testing.T) {
	working := &fakeQuoteSource{quote: &models.Quote{Ticker: "TCS.NS", Price: 4200}}
	svc := NewService(&fakeHistorySource{}, []QuoteSource{working},
		cache.NewMemoryCache(), testLogger(t))

	ctx := context.Background()
	if _, err := svc.GetQuote(ctx, "TCS.NS"); err != nil {
		t.Fatalf("first quote: %v", err)
	}
	if _, err := svc.GetQuote(ctx, "TCS.NS"); err != nil {
		t.Fatalf("second quote: %v", err)
	}
	if working.calls != 1 {
		t.Fatalf("expected single upstream call, got %d", working.calls)
	}
}
