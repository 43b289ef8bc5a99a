package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"StockPulse/internal/domain/models"
	stockhttp "StockPulse/pkg/http"
	"StockPulse/pkg/logger"
)

// FinnhubProvider queries the Finnhub REST API for symbol search and
// quote snapshots.
type FinnhubProvider struct {
	client  *stockhttp.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
}

// NewFinnhubProvider creates a Finnhub provider.
func NewFinnhubProvider(client *stockhttp.Client, baseURL, apiKey string, log *logger.Logger) *FinnhubProvider {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	return &FinnhubProvider{client: client, baseURL: baseURL, apiKey: apiKey, log: log}
}

// Descriptor implements Provider.
func (p *FinnhubProvider) Descriptor() Descriptor {
	return Descriptor{Name: "finnhub", Priority: 15, RequiresAPIKey: true, Markets: []string{"NASDAQ", "NYSE"}}
}

type finnhubSearchResponse struct {
	Count  int `json:"count"`
	Result []struct {
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"result"`
}

// Fetch implements Provider. Finnhub cannot list; empty terms yield no
// records.
func (p *FinnhubProvider) Fetch(ctx context.Context, terms []string) ([]models.StockRecord, error) {
	if p.apiKey == "" {
		return nil, errors.New("finnhub: api key not configured")
	}

	var out []models.StockRecord
	for _, term := range terms {
		var resp finnhubSearchResponse
		err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
			Method: stockhttp.MethodGet,
			URL:    p.baseURL + "/search",
			QueryParams: map[string][]string{
				"q":     {term},
				"token": {p.apiKey},
			},
		}, &resp)
		if err != nil {
			return nil, p.mapError(fmt.Errorf("finnhub search %q: %w", term, err))
		}

		for _, r := range resp.Result {
			if r.Type != "" && r.Type != "Common Stock" {
				continue
			}
			out = append(out, models.StockRecord{
				Ticker: r.Symbol,
				Name:   r.Description,
				Source: "finnhub",
			})
		}
	}

	p.enrich(ctx, out)
	return out, nil
}

// profileEnrichLimit bounds profile lookups per fetch to respect the
// free-tier quota.
const profileEnrichLimit = 5

// enrich fills sector, exchange and market cap from company profiles.
// Profile failures leave the search record as-is.
func (p *FinnhubProvider) enrich(ctx context.Context, records []models.StockRecord) {
	n := len(records)
	if n > profileEnrichLimit {
		n = profileEnrichLimit
	}
	for i := 0; i < n; i++ {
		profile, err := p.Profile(ctx, records[i].Ticker)
		if err != nil || profile == nil {
			if err != nil {
				p.log.Warn("finnhub profile lookup failed",
					logger.String("ticker", records[i].Ticker),
					logger.Error(err))
			}
			continue
		}
		records[i].Sector = profile.Sector
		records[i].Exchange = profile.Exchange
		records[i].MarketCap = profile.MarketCap
	}
}

type finnhubQuoteResponse struct {
	Current   float64 `json:"c"`
	Change    float64 `json:"d"`
	ChangePct float64 `json:"dp"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
	Time      int64   `json:"t"`
}

// Quote returns the latest snapshot for a ticker.
func (p *FinnhubProvider) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	if p.apiKey == "" {
		return nil, errors.New("finnhub: api key not configured")
	}

	var resp finnhubQuoteResponse
	err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
		Method: stockhttp.MethodGet,
		URL:    p.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {ticker},
			"token":  {p.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, p.mapError(fmt.Errorf("finnhub quote %s: %w", ticker, err))
	}
	if resp.Current == 0 && resp.PrevClose == 0 {
		return nil, fmt.Errorf("finnhub quote %s: no data", ticker)
	}

	return &models.Quote{
		Ticker:        ticker,
		Price:         resp.Current,
		Change:        resp.Change,
		ChangePercent: resp.ChangePct,
		High:          resp.High,
		Low:           resp.Low,
		Open:          resp.Open,
		PrevClose:     resp.PrevClose,
		Time:          time.Unix(resp.Time, 0).UTC(),
		Source:        "finnhub",
	}, nil
}

type finnhubCandleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// finnhubResolution maps candle intervals onto Finnhub resolutions.
func finnhubResolution(interval string) string {
	switch interval {
	case "1wk":
		return "W"
	case "1mo":
		return "M"
	default:
		return "D"
	}
}

// History fetches OHLCV candles between from and to.
func (p *FinnhubProvider) History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]models.Bar, error) {
	if p.apiKey == "" {
		return nil, errors.New("finnhub: api key not configured")
	}

	var resp finnhubCandleResponse
	err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
		Method: stockhttp.MethodGet,
		URL:    p.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {ticker},
			"resolution": {finnhubResolution(interval)},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {p.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, p.mapError(fmt.Errorf("finnhub candles %s: %w", ticker, err))
	}
	if resp.Status != "ok" || len(resp.Times) == 0 {
		return nil, nil
	}

	bars := make([]models.Bar, 0, len(resp.Times))
	for i, ts := range resp.Times {
		if i >= len(resp.Opens) || i >= len(resp.Highs) || i >= len(resp.Lows) || i >= len(resp.Closes) {
			break
		}
		var vol float64
		if i < len(resp.Volumes) {
			vol = resp.Volumes[i]
		}
		bars = append(bars, models.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   resp.Opens[i],
			High:   resp.Highs[i],
			Low:    resp.Lows[i],
			Close:  resp.Closes[i],
			Volume: vol,
		})
	}
	return bars, nil
}

type finnhubProfileResponse struct {
	Name                 string  `json:"name"`
	Exchange             string  `json:"exchange"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	MarketCapitalization float64 `json:"marketCapitalization"`
}

// Profile returns company details for a ticker.
func (p *FinnhubProvider) Profile(ctx context.Context, ticker string) (*models.StockRecord, error) {
	if p.apiKey == "" {
		return nil, errors.New("finnhub: api key not configured")
	}

	var resp finnhubProfileResponse
	err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
		Method: stockhttp.MethodGet,
		URL:    p.baseURL + "/stock/profile2",
		QueryParams: map[string][]string{
			"symbol": {ticker},
			"token":  {p.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, p.mapError(fmt.Errorf("finnhub profile %s: %w", ticker, err))
	}
	if resp.Name == "" {
		return nil, nil
	}

	rec := &models.StockRecord{
		Ticker:   ticker,
		Name:     resp.Name,
		Sector:   resp.FinnhubIndustry,
		Exchange: resp.Exchange,
		Source:   "finnhub",
	}
	if resp.MarketCapitalization > 0 {
		// Finnhub reports market cap in millions.
		v := resp.MarketCapitalization * 1e6
		rec.MarketCap = &v
	}
	return rec, nil
}

// CheckHealth implements HealthChecker.
func (p *FinnhubProvider) CheckHealth(ctx context.Context, symbol string) error {
	_, err := p.Quote(ctx, symbol)
	return err
}

func (p *FinnhubProvider) mapError(err error) error {
	var statusErr *stockhttp.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 429 {
		return &models.RateLimitedError{Provider: "finnhub", RetryAfter: 30}
	}
	return err
}
