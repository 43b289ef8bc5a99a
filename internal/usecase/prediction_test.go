package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/logger"
)

type fakeHistory struct {
	bars  []models.Bar
	err   error
	calls int
}

func (f *fakeHistory) GetHistory(_ context.Context, _, _, _ string) ([]models.Bar, error) {
	f.calls++
	return f.bars, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func trendBars(n int) []models.Bar {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)*0.3 + math.Sin(float64(i)/3)*2
		bars[i] = models.Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   c - 0.2,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100000 + float64(i)*10,
		}
	}
	return bars
}

func fastConfig() PredictionConfig {
	cfg := DefaultPredictionConfig()
	cfg.Model.Rounds = 10
	return cfg
}

func newService(t *testing.T, h HistoryGetter) *PredictionService {
	t.Helper()
	return NewPredictionService(h, cache.NewMemoryCache(), fastConfig(), testLogger(t), nil)
}

func TestPredictRejectsInvalidTicker(t *testing.T) {
	svc := newService(t, &fakeHistory{})

	for _, ticker := range []string{"", "bad ticker", "se;ect", "TOO-LONG-TICKER-NAME-WAY-OVER"} {
		_, err := svc.Predict(context.Background(), ticker)
		var invalidErr *models.InvalidTickerError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("ticker %q: expected InvalidTickerError, got %v", ticker, err)
		}
	}
}

func TestPredictInvalidTickerSkipsNetwork(t *testing.T) {
	h := &fakeHistory{}
	svc := newService(t, h)

	_, _ = svc.Predict(context.Background(), "not a ticker")
	if h.calls != 0 {
		t.Fatalf("invalid ticker must not reach the history fetcher")
	}
}

func TestPredictInsufficientBars(t *testing.T) {
	h := &fakeHistory{bars: trendBars(150)}
	svc := newService(t, h)

	_, err := svc.Predict(context.Background(), "TCS.NS")
	var insufficientErr *models.InsufficientDataError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficientErr.Rows != 150 || insufficientErr.Need != 200 {
		t.Fatalf("unexpected counts %+v", insufficientErr)
	}
}

func TestPredictProducesResult(t *testing.T) {
	h := &fakeHistory{bars: trendBars(300)}
	svc := newService(t, h)

	res, err := svc.Predict(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if res.Ticker != "TCS.NS" {
		t.Fatalf("unexpected ticker %q", res.Ticker)
	}
	if res.Direction != models.DirectionUp && res.Direction != models.DirectionDown {
		t.Fatalf("unexpected direction %q", res.Direction)
	}
	if res.ProbabilityUp < 0 || res.ProbabilityUp > 1 {
		t.Fatalf("probability out of range: %v", res.ProbabilityUp)
	}
	switch res.Confidence {
	case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
	default:
		t.Fatalf("unexpected confidence %q", res.Confidence)
	}
	if res.BaselineAccuracy <= 0 || res.BaselineAccuracy >= 1 {
		t.Fatalf("baseline out of range: %v", res.BaselineAccuracy)
	}
	if res.SplitsUsed != 3 {
		t.Fatalf("expected 3 walk-forward splits, got %d", res.SplitsUsed)
	}
	if res.Cached {
		t.Fatalf("first computation must not be marked cached")
	}
}

func TestPredictCachesByTicker(t *testing.T) {
	h := &fakeHistory{bars: trendBars(300)}
	svc := newService(t, h)

	ctx := context.Background()
	if _, err := svc.Predict(ctx, "TCS.NS"); err != nil {
		t.Fatalf("first predict: %v", err)
	}
	res, err := svc.Predict(ctx, "TCS.NS")
	if err != nil {
		t.Fatalf("second predict: %v", err)
	}
	if !res.Cached {
		t.Fatalf("second result must come from cache")
	}
	if h.calls != 1 {
		t.Fatalf("expected single history fetch, got %d", h.calls)
	}
}

func TestPredictPropagatesHistoryErrors(t *testing.T) {
	h := &fakeHistory{err: models.ErrHistoryUnavailable}
	svc := newService(t, h)

	_, err := svc.Predict(context.Background(), "TCS.NS")
	if !errors.Is(err, models.ErrHistoryUnavailable) {
		t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
	}
}

func TestValidTicker(t *testing.T) {
	good := []string{"TCS.NS", "RELIANCE.NS", "M&M.NS", "BAJAJ-AUTO.NS", "AAPL"}
	for _, tk := range good {
		if !validTicker(tk) {
			t.Fatalf("expected %q valid", tk)
		}
	}
	bad := []string{"", "a b", "tcs!", "DROP/TABLE"}
	for _, tk := range bad {
		if validTicker(tk) {
			t.Fatalf("expected %q invalid", tk)
		}
	}
}
