package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"StockPulse/internal/domain/models"
	stockhttp "StockPulse/pkg/http"
)

func TestAlphaVantageRequestsQueryPathOnce(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"bestMatches":[{"1. symbol":"TCS.NS","2. name":"Tata Consultancy Services","4. region":"India"}]}`)
	}))
	defer srv.Close()

	// The base URL is the bare API host; the provider owns the /query path.
	p := NewAlphaVantageProvider(stockhttp.NewClient(), srv.URL, "key", 60, newTestLogger(t))

	records, err := p.Fetch(context.Background(), []string{"TCS"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || records[0].Ticker != "TCS.NS" {
		t.Fatalf("unexpected records %+v", records)
	}
	if gotPath != "/query" {
		t.Fatalf("request path = %q, want /query", gotPath)
	}
}

func TestAlphaVantageQuotaNoteIsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
	}))
	defer srv.Close()

	p := NewAlphaVantageProvider(stockhttp.NewClient(), srv.URL, "key", 60, newTestLogger(t))

	_, err := p.Fetch(context.Background(), []string{"TCS"})
	var rateErr *models.RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitedError on quota note, got %v", err)
	}
	if rateErr.RetryAfter != 60 {
		t.Fatalf("retry-after = %d, want 60", rateErr.RetryAfter)
	}
}
