package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/service/ratelimit"
	stockhttp "StockPulse/pkg/http"
	"StockPulse/pkg/logger"
)

// AlphaVantageProvider queries the Alpha Vantage SYMBOL_SEARCH and
// GLOBAL_QUOTE endpoints. Calls are paced against the free-tier
// per-minute quota.
type AlphaVantageProvider struct {
	client  *stockhttp.Client
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

// NewAlphaVantageProvider creates an Alpha Vantage provider.
func NewAlphaVantageProvider(client *stockhttp.Client, baseURL, apiKey string, requestsPerMinute int, log *logger.Logger) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &AlphaVantageProvider{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: ratelimit.NewPerMinute(requestsPerMinute),
		log:     log,
	}
}

// Descriptor implements Provider.
func (p *AlphaVantageProvider) Descriptor() Descriptor {
	return Descriptor{Name: "alphavantage", Priority: 10, RequiresAPIKey: true, Markets: []string{"NASDAQ", "NYSE", "NSE", "BSE"}}
}

type avSearchResponse struct {
	BestMatches []map[string]string `json:"bestMatches"`
	Note        string              `json:"Note"`
	Information string              `json:"Information"`
}

// Fetch implements Provider. Alpha Vantage cannot list; empty terms
// yield no records.
func (p *AlphaVantageProvider) Fetch(ctx context.Context, terms []string) ([]models.StockRecord, error) {
	if p.apiKey == "" {
		return nil, errors.New("alphavantage: api key not configured")
	}

	var out []models.StockRecord
	for _, term := range terms {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("alphavantage pacing: %w", err)
		}

		var resp avSearchResponse
		err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
			Method: stockhttp.MethodGet,
			URL:    p.baseURL + "/query",
			QueryParams: map[string][]string{
				"function": {"SYMBOL_SEARCH"},
				"keywords": {term},
				"apikey":   {p.apiKey},
			},
		}, &resp)
		if err != nil {
			return nil, p.mapError(err)
		}
		if resp.Note != "" || resp.Information != "" {
			// Quota notes come back with HTTP 200.
			return nil, &models.RateLimitedError{Provider: "alphavantage", RetryAfter: 60}
		}

		for _, m := range resp.BestMatches {
			symbol := m["1. symbol"]
			if symbol == "" {
				continue
			}
			out = append(out, models.StockRecord{
				Ticker:   symbol,
				Name:     m["2. name"],
				Exchange: m["4. region"],
				Source:   "alphavantage",
			})
		}
	}
	return out, nil
}

type avQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

// Quote returns the latest GLOBAL_QUOTE snapshot for a ticker.
func (p *AlphaVantageProvider) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	if p.apiKey == "" {
		return nil, errors.New("alphavantage: api key not configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("alphavantage pacing: %w", err)
	}

	var resp avQuoteResponse
	err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
		Method: stockhttp.MethodGet,
		URL:    p.baseURL + "/query",
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {ticker},
			"apikey":   {p.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, p.mapError(err)
	}
	if resp.Note != "" || resp.Information != "" {
		return nil, &models.RateLimitedError{Provider: "alphavantage", RetryAfter: 60}
	}
	if len(resp.GlobalQuote) == 0 {
		return nil, fmt.Errorf("alphavantage quote %s: no data", ticker)
	}

	q := &models.Quote{Ticker: ticker, Source: "alphavantage"}
	q.Price = parseFloat(resp.GlobalQuote["05. price"])
	q.Open = parseFloat(resp.GlobalQuote["02. open"])
	q.High = parseFloat(resp.GlobalQuote["03. high"])
	q.Low = parseFloat(resp.GlobalQuote["04. low"])
	q.PrevClose = parseFloat(resp.GlobalQuote["08. previous close"])
	q.Change = parseFloat(resp.GlobalQuote["09. change"])
	if q.PrevClose != 0 {
		q.ChangePercent = q.Change / q.PrevClose * 100
	}
	return q, nil
}

// CheckHealth implements HealthChecker.
func (p *AlphaVantageProvider) CheckHealth(ctx context.Context, symbol string) error {
	_, err := p.Quote(ctx, symbol)
	return err
}

func (p *AlphaVantageProvider) mapError(err error) error {
	var statusErr *stockhttp.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 429 {
		return &models.RateLimitedError{Provider: "alphavantage", RetryAfter: 60}
	}
	return err
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
