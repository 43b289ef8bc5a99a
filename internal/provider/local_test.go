package provider

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"StockPulse/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestCatalog(t *testing.T) *LocalProvider {
	t.Helper()
	dir := t.TempDir()

	seed := []seedRecord{
		{Ticker: "RELIANCE.NS", Name: "Reliance Industries", Sector: "Energy"},
		{Ticker: "TCS.NS", Name: "Tata Consultancy Services", Sector: "IT"},
		{Ticker: "INFY.NS", Name: "Infosys", Sector: "IT"},
		{Ticker: "HDFCBANK.NS", Name: "HDFC Bank", Sector: "Financials"},
	}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	seedPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedPath, raw, 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	p, err := NewLocalProvider(filepath.Join(dir, "stocks.db"), seedPath, newTestLogger(t))
	if err != nil {
		t.Fatalf("new local provider: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestLocalProviderListsAll(t *testing.T) {
	p := newTestCatalog(t)

	records, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for _, r := range records {
		if r.Source != "local" {
			t.Fatalf("expected local source, got %q", r.Source)
		}
	}
}

func TestLocalProviderSearchesByName(t *testing.T) {
	p := newTestCatalog(t)

	records, err := p.Fetch(context.Background(), []string{"tata"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || records[0].Ticker != "TCS.NS" {
		t.Fatalf("unexpected result %+v", records)
	}
}

func TestLocalProviderDedupsAcrossTerms(t *testing.T) {
	p := newTestCatalog(t)

	records, err := p.Fetch(context.Background(), []string{"infy", "infosys"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected deduped single record, got %d", len(records))
	}
}

func TestLocalProviderLookup(t *testing.T) {
	p := newTestCatalog(t)

	rec, err := p.Lookup(context.Background(), "reliance.ns")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec == nil || rec.Name != "Reliance Industries" {
		t.Fatalf("unexpected lookup result %+v", rec)
	}

	missing, err := p.Lookup(context.Background(), "NOPE.NS")
	if err != nil {
		t.Fatalf("lookup missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing ticker")
	}
}

func TestLocalProviderCheckHealth(t *testing.T) {
	p := newTestCatalog(t)

	if err := p.CheckHealth(context.Background(), "RELIANCE.NS"); err != nil {
		t.Fatalf("healthy catalog reported unhealthy: %v", err)
	}

	// A catalog that cannot answer the probe must report unhealthy.
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.CheckHealth(context.Background(), "RELIANCE.NS"); err == nil {
		t.Fatalf("expected health error on closed catalog")
	}
}

func TestLocalProviderSeedIsIdempotent(t *testing.T) {
	p := newTestCatalog(t)

	// Seeding again over a populated table must not duplicate rows.
	if err := p.seedIfEmpty(""); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	records, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records after reseed, got %d", len(records))
	}
}
