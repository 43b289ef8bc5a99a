package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"StockPulse/internal/provider"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testCatalog(t *testing.T) *provider.LocalProvider {
	t.Helper()
	dir := t.TempDir()

	seed := `[{"ticker":"TCS.NS","name":"Tata Consultancy Services","sector":"IT","exchange":"NSE"}]`
	seedPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedPath, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	p, err := provider.NewLocalProvider(filepath.Join(dir, "stocks.db"), seedPath, testLogger(t))
	if err != nil {
		t.Fatalf("new local provider: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func detailContext(e *echo.Echo, ticker string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/"+ticker, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("ticker")
	c.SetParamValues(ticker)
	return c, rec
}

func TestDetailServesCatalogRecord(t *testing.T) {
	h := NewStocksHandler(testLogger(t), testCatalog(t), nil, nil, cache.NewMemoryCache(), 0, 0)
	e := echo.New()

	c, rec := detailContext(e, "tcs.ns")
	if err := h.Detail(c); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "TCS.NS") || !strings.Contains(body, "Tata Consultancy Services") {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestDetailUnknownTickerIs404(t *testing.T) {
	h := NewStocksHandler(testLogger(t), testCatalog(t), nil, nil, cache.NewMemoryCache(), 0, 0)
	e := echo.New()

	c, rec := detailContext(e, "NOPE.NS")
	if err := h.Detail(c); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
