package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/provider"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
)

const (
	// tickerTermLimit caps how many ticker-like terms go to a remote
	// provider in one call.
	tickerTermLimit = 10
	// nameTermLimit caps how many name-like terms are forwarded to
	// remote search endpoints per provider.
	nameTermLimit = 3
	// nameSearchFloor keeps name search running only while accumulated
	// results stay below this count.
	nameSearchFloor = 3
	// earlyExitCount stops the provider cascade once enough records
	// have been collected for a term query.
	earlyExitCount = 5
)

// Option configures Orchestrator.
type Option func(*Orchestrator)

// Orchestrator runs the provider cascade: priority order, per-provider
// error breakers, first-seen-wins dedup.
type Orchestrator struct {
	providers    []provider.Provider
	states       map[string]*provider.State
	metrics      *metrics.Recorder
	log          *logger.Logger
	fetchTimeout time.Duration
	healthSymbol string
}

// New creates an orchestrator over the given providers. Providers are
// ordered by descriptor priority, lowest first.
func New(providers []provider.Provider, maxErrors int, log *logger.Logger, opts ...Option) *Orchestrator {
	sorted := make([]provider.Provider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Descriptor().Priority < sorted[j].Descriptor().Priority
	})

	states := make(map[string]*provider.State, len(sorted))
	for _, p := range sorted {
		d := p.Descriptor()
		states[d.Name] = provider.NewState(maxErrors, d.Pinned)
	}

	o := &Orchestrator{
		providers:    sorted,
		states:       states,
		log:          log,
		fetchTimeout: 5 * time.Second,
		healthSymbol: "RELIANCE.NS",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFetchTimeout sets the per-provider fetch deadline.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithHealthSymbol sets the probe symbol for health checks.
func WithHealthSymbol(symbol string) Option {
	return func(o *Orchestrator) {
		if symbol != "" {
			o.healthSymbol = symbol
		}
	}
}

// WithMetrics attaches a Prometheus recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = rec
	}
}

// nameLike reports whether a term looks like a company name rather
// than a ticker symbol: it contains whitespace, or is longer than 10
// characters without an exchange suffix.
func nameLike(term string) bool {
	if strings.ContainsAny(term, " \t") {
		return true
	}
	upper := strings.ToUpper(term)
	if strings.HasSuffix(upper, ".NS") || strings.HasSuffix(upper, ".BO") {
		return false
	}
	return len(term) > 10
}

// partitionTerms splits search terms into ticker-like and name-like.
func partitionTerms(terms []string) (tickers, names []string) {
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if nameLike(t) {
			names = append(names, t)
		} else {
			tickers = append(tickers, t)
		}
	}
	return tickers, names
}

// FetchAll runs the cascade for the given search terms.
//
// With no terms the local catalog is the sole source (full listing).
// With terms the local catalog is skipped, since callers consult it
// first-line before reaching for remote providers; remote providers
// are tried in ascending priority order with ticker-like terms first,
// then name-like terms (bounded) while results remain sparse.
//
// A per-provider failure trips that provider's breaker and moves on;
// it never aborts the cascade. Zero results from a provider is not a
// failure. ErrAllProvidersDown is returned only when every remote
// provider is tripped and nothing was collected.
func (o *Orchestrator) FetchAll(ctx context.Context, terms []string) ([]models.StockRecord, error) {
	tickerTerms, nameTerms := partitionTerms(terms)

	if len(tickerTerms) == 0 && len(nameTerms) == 0 {
		return o.fetchLocal(ctx)
	}

	if len(tickerTerms) > tickerTermLimit {
		tickerTerms = tickerTerms[:tickerTermLimit]
	}
	if len(nameTerms) > nameTermLimit {
		nameTerms = nameTerms[:nameTermLimit]
	}

	seen := make(map[string]struct{})
	var results []models.StockRecord

	merge := func(records []models.StockRecord) {
		for _, r := range records {
			key := strings.ToUpper(r.Ticker)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, r)
		}
	}

	anyAvailable := false
	for _, p := range o.providers {
		d := p.Descriptor()
		if d.Pinned {
			continue
		}
		state := o.states[d.Name]
		if !state.Available() {
			o.observeAvailability(d.Name, false)
			continue
		}
		anyAvailable = true

		if len(results) >= earlyExitCount {
			break
		}

		failed := false
		if len(tickerTerms) > 0 {
			records, err := o.fetchOne(ctx, p, tickerTerms)
			if err != nil {
				o.recordFailure(d.Name, state, err)
				failed = true
			} else {
				state.OnSuccess()
				o.observeAvailability(d.Name, true)
				merge(records)
			}
		}

		if !failed && len(results) < nameSearchFloor && len(nameTerms) > 0 {
			records, err := o.fetchOne(ctx, p, nameTerms)
			if err != nil {
				o.recordFailure(d.Name, state, err)
			} else {
				state.OnSuccess()
				o.observeAvailability(d.Name, true)
				merge(records)
			}
		}
	}

	if !anyAvailable && len(results) == 0 {
		return nil, models.ErrAllProvidersDown
	}
	return results, nil
}

func (o *Orchestrator) recordFailure(name string, state *provider.State, err error) {
	state.OnError()
	o.observeError(name)
	o.log.Warn("provider fetch failed",
		logger.String("provider", name),
		logger.Int("error_count", state.ErrorCount()),
		logger.Error(err))
}

func (o *Orchestrator) fetchLocal(ctx context.Context) ([]models.StockRecord, error) {
	for _, p := range o.providers {
		if !p.Descriptor().Pinned {
			continue
		}
		return o.fetchOne(ctx, p, nil)
	}
	return nil, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, p provider.Provider, terms []string) ([]models.StockRecord, error) {
	name := p.Descriptor().Name
	if o.metrics != nil {
		o.metrics.RecordProviderRequest(name)
	}

	fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	start := time.Now()
	records, err := p.Fetch(fctx, terms)
	if o.metrics != nil {
		o.metrics.RecordLatency("provider_fetch", time.Since(start).Seconds())
	}
	return records, err
}

// Status reports every provider's breaker state.
func (o *Orchestrator) Status() []models.ProviderStatus {
	out := make([]models.ProviderStatus, 0, len(o.providers))
	for _, p := range o.providers {
		d := p.Descriptor()
		state := o.states[d.Name]
		out = append(out, models.ProviderStatus{
			Name:       d.Name,
			Priority:   d.Priority,
			Markets:    d.Markets,
			Available:  state.Available(),
			ErrorCount: state.ErrorCount(),
			MaxErrors:  state.MaxErrors(),
			Pinned:     d.Pinned,
		})
	}
	return out
}

// ResetErrors clears breaker state. Empty name resets every provider.
func (o *Orchestrator) ResetErrors(name string) error {
	if name == "" {
		for _, state := range o.states {
			state.Reset()
		}
		return nil
	}
	state, ok := o.states[name]
	if !ok {
		return fmt.Errorf("unknown provider %q", name)
	}
	state.Reset()
	return nil
}

// HealthCheck probes providers that support it. Probes are advisory:
// they never touch breaker counters.
func (o *Orchestrator) HealthCheck(ctx context.Context) []models.ProviderHealth {
	out := make([]models.ProviderHealth, 0, len(o.providers))
	for _, p := range o.providers {
		d := p.Descriptor()
		hc, ok := p.(provider.HealthChecker)
		if !ok {
			out = append(out, models.ProviderHealth{Name: d.Name, Healthy: o.states[d.Name].Available()})
			continue
		}

		hctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
		start := time.Now()
		err := hc.CheckHealth(hctx, o.healthSymbol)
		cancel()

		h := models.ProviderHealth{
			Name:      d.Name,
			Healthy:   err == nil,
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			h.Error = err.Error()
		}
		out = append(out, h)
	}
	return out
}

func (o *Orchestrator) observeError(name string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordProviderError(name)
	o.metrics.RecordProviderAvailability(name, o.states[name].Available())
}

func (o *Orchestrator) observeAvailability(name string, available bool) {
	if o.metrics != nil {
		o.metrics.RecordProviderAvailability(name, available)
	}
}
