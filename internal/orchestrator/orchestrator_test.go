package orchestrator

import (
	"context"
	"errors"
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/provider"
	"StockPulse/pkg/logger"
)

type fakeProvider struct {
	desc    provider.Descriptor
	records []models.StockRecord
	err     error
	calls   int
	seen    [][]string
}

func (f *fakeProvider) Descriptor() provider.Descriptor { return f.desc }

func (f *fakeProvider) Fetch(_ context.Context, terms []string) ([]models.StockRecord, error) {
	f.calls++
	f.seen = append(f.seen, terms)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func rec(ticker string) models.StockRecord {
	return models.StockRecord{Ticker: ticker, Name: ticker}
}

func TestNoTermsUsesLocalOnly(t *testing.T) {
	local := &fakeProvider{
		desc:    provider.Descriptor{Name: "local", Priority: 1, Pinned: true},
		records: []models.StockRecord{rec("TCS.NS"), rec("INFY.NS")},
	}
	remote := &fakeProvider{
		desc:    provider.Descriptor{Name: "yahoo", Priority: 5},
		records: []models.StockRecord{rec("AAPL")},
	}

	o := New([]provider.Provider{remote, local}, 5, testLogger(t))

	out, err := o.FetchAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 local records, got %d", len(out))
	}
	if remote.calls != 0 {
		t.Fatalf("remote provider must not be called without terms")
	}
}

func TestTermsSkipLocal(t *testing.T) {
	local := &fakeProvider{
		desc:    provider.Descriptor{Name: "local", Priority: 1, Pinned: true},
		records: []models.StockRecord{rec("TCS.NS")},
	}
	remote := &fakeProvider{
		desc:    provider.Descriptor{Name: "yahoo", Priority: 5},
		records: []models.StockRecord{rec("TCS.NS")},
	}

	o := New([]provider.Provider{local, remote}, 5, testLogger(t))

	_, err := o.FetchAll(context.Background(), []string{"TCS.NS"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if local.calls != 0 {
		t.Fatalf("local catalog must be skipped when terms are supplied")
	}
	if remote.calls != 1 {
		t.Fatalf("expected one remote call, got %d", remote.calls)
	}
}

func TestDedupKeepsFirstSeen(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	first := &fakeProvider{
		desc:    provider.Descriptor{Name: "yahoo", Priority: 5},
		records: []models.StockRecord{{Ticker: "TCS.NS", Name: "from yahoo"}},
	}
	second := &fakeProvider{
		desc:    provider.Descriptor{Name: "finnhub", Priority: 15},
		records: []models.StockRecord{{Ticker: "TCS.NS", Name: "from finnhub"}},
	}

	o := New([]provider.Provider{second, local, first}, 5, testLogger(t))

	out, err := o.FetchAll(context.Background(), []string{"TCS.NS"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected deduped single record, got %d", len(out))
	}
	if out[0].Name != "from yahoo" {
		t.Fatalf("expected first-seen record from higher-priority provider, got %q", out[0].Name)
	}
}

func TestBreakerTripsAfterFiveErrors(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	flaky := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5},
		err:  errors.New("boom"),
	}

	o := New([]provider.Provider{local, flaky}, 5, testLogger(t))

	for i := 0; i < 7; i++ {
		_, _ = o.FetchAll(context.Background(), []string{"TCS.NS"})
	}

	if flaky.calls != 5 {
		t.Fatalf("expected exactly 5 calls before trip, got %d", flaky.calls)
	}

	var status *models.ProviderStatus
	for _, s := range o.Status() {
		if s.Name == "yahoo" {
			cp := s
			status = &cp
		}
	}
	if status == nil || status.Available {
		t.Fatalf("expected yahoo unavailable, got %+v", status)
	}
	if status.ErrorCount != 5 {
		t.Fatalf("expected error count 5, got %d", status.ErrorCount)
	}
}

func TestSuccessResetsBreaker(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	flaky := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5},
		err:  errors.New("boom"),
	}

	o := New([]provider.Provider{local, flaky}, 5, testLogger(t))
	for i := 0; i < 4; i++ {
		_, _ = o.FetchAll(context.Background(), []string{"TCS.NS"})
	}

	flaky.err = nil
	flaky.records = []models.StockRecord{rec("TCS.NS")}
	if _, err := o.FetchAll(context.Background(), []string{"TCS.NS"}); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	for _, s := range o.Status() {
		if s.Name == "yahoo" && s.ErrorCount != 0 {
			t.Fatalf("expected error count cleared by success, got %d", s.ErrorCount)
		}
	}
}

func TestStatusReportsMarkets(t *testing.T) {
	local := &fakeProvider{
		desc: provider.Descriptor{Name: "local", Priority: 1, Markets: []string{"NSE", "BSE"}, Pinned: true},
	}
	remote := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5, Markets: []string{"NSE", "NASDAQ"}},
	}

	o := New([]provider.Provider{remote, local}, 5, testLogger(t))

	byName := map[string][]string{}
	for _, s := range o.Status() {
		byName[s.Name] = s.Markets
	}
	if got := byName["local"]; len(got) != 2 || got[0] != "NSE" || got[1] != "BSE" {
		t.Fatalf("unexpected local markets %v", got)
	}
	if got := byName["yahoo"]; len(got) != 2 || got[1] != "NASDAQ" {
		t.Fatalf("unexpected yahoo markets %v", got)
	}
}

func TestResetRestoresTrippedProvider(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	flaky := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5},
		err:  errors.New("boom"),
	}

	o := New([]provider.Provider{local, flaky}, 5, testLogger(t))
	for i := 0; i < 6; i++ {
		_, _ = o.FetchAll(context.Background(), []string{"TCS.NS"})
	}

	if err := o.ResetErrors("yahoo"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	flaky.err = nil
	flaky.records = []models.StockRecord{rec("TCS.NS")}
	out, err := o.FetchAll(context.Background(), []string{"TCS.NS"})
	if err != nil {
		t.Fatalf("fetch after reset: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected record after reset, got %d", len(out))
	}
}

func TestResetUnknownProvider(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	o := New([]provider.Provider{local}, 5, testLogger(t))
	if err := o.ResetErrors("nope"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestAllProvidersDown(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	flaky := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5},
		err:  errors.New("boom"),
	}

	o := New([]provider.Provider{local, flaky}, 5, testLogger(t))
	for i := 0; i < 5; i++ {
		_, _ = o.FetchAll(context.Background(), []string{"ZZZZ"})
	}

	_, err := o.FetchAll(context.Background(), []string{"ZZZZ"})
	if !errors.Is(err, models.ErrAllProvidersDown) {
		t.Fatalf("expected ErrAllProvidersDown, got %v", err)
	}
}

func TestEarlyExitStopsCascade(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	big := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5},
		records: []models.StockRecord{
			rec("A"), rec("B"), rec("C"), rec("D"), rec("E"),
		},
	}
	next := &fakeProvider{
		desc:    provider.Descriptor{Name: "finnhub", Priority: 15},
		records: []models.StockRecord{rec("F")},
	}

	o := New([]provider.Provider{next, big, local}, 5, testLogger(t))

	out, err := o.FetchAll(context.Background(), []string{"TCS.NS"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected early exit at 5, got %d", len(out))
	}
	if next.calls != 0 {
		t.Fatalf("lower-priority provider must be skipped after early exit")
	}
}

func TestNameTermsAreBounded(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	remote := &fakeProvider{desc: provider.Descriptor{Name: "yahoo", Priority: 5}}

	o := New([]provider.Provider{local, remote}, 5, testLogger(t))

	terms := []string{
		"tata consultancy", "reliance industries", "hdfc bank",
		"infosys limited", "bharti airtel",
	}
	_, _ = o.FetchAll(context.Background(), terms)

	if remote.calls != 1 {
		t.Fatalf("expected single remote call, got %d", remote.calls)
	}
	if got := len(remote.seen[0]); got != 3 {
		t.Fatalf("expected 3 bounded name terms, got %d (%v)", got, remote.seen[0])
	}
}

func TestNameSearchSkippedWhenEnoughResults(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	remote := &fakeProvider{
		desc: provider.Descriptor{Name: "yahoo", Priority: 5},
		records: []models.StockRecord{
			rec("TATAMOTORS.NS"), rec("TATASTEEL.NS"), rec("TATAPOWER.NS"),
		},
	}

	o := New([]provider.Provider{local, remote}, 5, testLogger(t))

	_, err := o.FetchAll(context.Background(), []string{"TATA.NS", "tata consultancy services"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// The ticker fetch already produced >= 3 results, so the name-like
	// term must not trigger a second call to the same provider.
	if remote.calls != 1 {
		t.Fatalf("expected one remote call, got %d", remote.calls)
	}
	if got := remote.seen[0]; len(got) != 1 || got[0] != "TATA.NS" {
		t.Fatalf("expected only ticker term forwarded, got %v", got)
	}
}

func TestZeroResultsIsNotAFailure(t *testing.T) {
	local := &fakeProvider{desc: provider.Descriptor{Name: "local", Priority: 1, Pinned: true}}
	empty := &fakeProvider{desc: provider.Descriptor{Name: "yahoo", Priority: 5}}

	o := New([]provider.Provider{local, empty}, 5, testLogger(t))

	for i := 0; i < 10; i++ {
		out, err := o.FetchAll(context.Background(), []string{"ZZZZ"})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(out) != 0 {
			t.Fatalf("expected empty result")
		}
	}

	for _, s := range o.Status() {
		if s.Name == "yahoo" {
			if !s.Available || s.ErrorCount != 0 {
				t.Fatalf("zero results must not trip breaker: %+v", s)
			}
		}
	}
}

func TestPartitionTerms(t *testing.T) {
	tickers, names := partitionTerms([]string{
		"TCS.NS",
		"RELIANCE.NS",
		"tata consultancy",
		"verylongcompanyname",
		"HDFCBANK.BO",
		"  ",
	})
	if len(tickers) != 3 {
		t.Fatalf("expected 3 ticker terms, got %v", tickers)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 name terms, got %v", names)
	}
}
