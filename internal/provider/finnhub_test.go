package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stockhttp "StockPulse/pkg/http"
)

func TestFinnhubHistoryParsesCandles(t *testing.T) {
	var gotResolution string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/candle" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotResolution = r.URL.Query().Get("resolution")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"s":"ok","t":[1704067200,1704153600],"o":[100,101],"h":[102,103],"l":[99,100],"c":[101,102],"v":[1000,1100]}`)
	}))
	defer srv.Close()

	p := NewFinnhubProvider(stockhttp.NewClient(), srv.URL, "key", newTestLogger(t))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := p.History(context.Background(), "AAPL", from, from.AddDate(0, 0, 2), "1d")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if gotResolution != "D" {
		t.Fatalf("resolution = %q, want D", gotResolution)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 101 || bars[1].Volume != 1100 {
		t.Fatalf("unexpected bar values %+v", bars)
	}
	if !bars[0].Time.Equal(time.Unix(1704067200, 0).UTC()) {
		t.Fatalf("unexpected bar time %v", bars[0].Time)
	}
}

func TestFinnhubHistoryNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer srv.Close()

	p := NewFinnhubProvider(stockhttp.NewClient(), srv.URL, "key", newTestLogger(t))

	now := time.Now()
	bars, err := p.History(context.Background(), "AAPL", now.AddDate(0, -1, 0), now, "1d")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if bars != nil {
		t.Fatalf("expected no bars for no_data, got %d", len(bars))
	}
}

func TestFinnhubFetchEnrichesFromProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			fmt.Fprint(w, `{"count":1,"result":[{"symbol":"AAPL","description":"Apple Inc","type":"Common Stock"}]}`)
		case "/stock/profile2":
			fmt.Fprint(w, `{"name":"Apple Inc","exchange":"NASDAQ","finnhubIndustry":"Technology","marketCapitalization":2500000}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewFinnhubProvider(stockhttp.NewClient(), srv.URL, "key", newTestLogger(t))

	records, err := p.Fetch(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Sector != "Technology" || r.Exchange != "NASDAQ" {
		t.Fatalf("record not enriched: %+v", r)
	}
	if r.MarketCap == nil || *r.MarketCap != 2500000*1e6 {
		t.Fatalf("unexpected market cap %+v", r.MarketCap)
	}
}

func TestFinnhubFetchSurvivesProfileFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"count":1,"result":[{"symbol":"AAPL","description":"Apple Inc","type":"Common Stock"}]}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	p := NewFinnhubProvider(stockhttp.NewClient(), srv.URL, "key", newTestLogger(t))

	records, err := p.Fetch(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Apple Inc" {
		t.Fatalf("expected the search record to survive, got %+v", records)
	}
	if records[0].Sector != "" {
		t.Fatalf("sector must stay empty when the profile lookup fails")
	}
}
