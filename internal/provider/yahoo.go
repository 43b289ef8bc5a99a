package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockPulse/internal/domain/models"
	stockhttp "StockPulse/pkg/http"
	"StockPulse/pkg/logger"
)

// YahooProvider queries the Yahoo Finance search and chart APIs.
type YahooProvider struct {
	client  *stockhttp.Client
	baseURL string
	log     *logger.Logger
}

// NewYahooProvider creates a Yahoo provider.
func NewYahooProvider(client *stockhttp.Client, baseURL string, log *logger.Logger) *YahooProvider {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &YahooProvider{client: client, baseURL: baseURL, log: log}
}

// Descriptor implements Provider.
func (p *YahooProvider) Descriptor() Descriptor {
	return Descriptor{Name: "yahoo", Priority: 5, Markets: []string{"NSE", "BSE", "NASDAQ", "NYSE"}}
}

type yahooSearchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
		Sector    string `json:"sector"`
	} `json:"quotes"`
}

// Fetch implements Provider. Yahoo has no bulk listing, so an empty
// term slice yields no records.
func (p *YahooProvider) Fetch(ctx context.Context, terms []string) ([]models.StockRecord, error) {
	var out []models.StockRecord
	for _, term := range terms {
		var resp yahooSearchResponse
		err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
			Method: stockhttp.MethodGet,
			URL:    p.baseURL + "/v1/finance/search",
			QueryParams: map[string][]string{
				"q":           {term},
				"quotesCount": {"10"},
				"newsCount":   {"0"},
			},
			Headers: map[string]string{"User-Agent": userAgent},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("yahoo search %q: %w", term, err)
		}

		for _, q := range resp.Quotes {
			if q.QuoteType != "" && q.QuoteType != "EQUITY" {
				continue
			}
			name := q.LongName
			if name == "" {
				name = q.ShortName
			}
			out = append(out, models.StockRecord{
				Ticker:   q.Symbol,
				Name:     name,
				Sector:   q.Sector,
				Exchange: q.Exchange,
				Source:   "yahoo",
			})
		}
	}
	return out, nil
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

const userAgent = "Mozilla/5.0 (compatible; stockpulse/1.0)"

// History fetches daily candles between from and to. Rows with any
// missing OHLC value are dropped.
func (p *YahooProvider) History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]models.Bar, error) {
	if interval == "" {
		interval = "1d"
	}

	var resp yahooChartResponse
	err := p.client.SendAndParse(ctx, &stockhttp.RequestOptions{
		Method: stockhttp.MethodGet,
		URL:    p.baseURL + "/v8/finance/chart/" + ticker,
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(from.Unix(), 10)},
			"period2":  {strconv.FormatInt(to.Unix(), 10)},
			"interval": {interval},
			"events":   {"history"},
		},
		Headers: map[string]string{"User-Agent": userAgent},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o, h, l, c := quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i]
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		var vol float64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		bars = append(bars, models.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *c,
			Volume: vol,
		})
	}
	return bars, nil
}

// Quote returns the latest snapshot for a ticker from chart metadata.
func (p *YahooProvider) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	now := time.Now()
	bars, err := p.History(ctx, ticker, now.AddDate(0, 0, -7), now, "1d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo quote %s: no data", ticker)
	}

	last := bars[len(bars)-1]
	q := &models.Quote{
		Ticker:    ticker,
		Price:     last.Close,
		High:      last.High,
		Low:       last.Low,
		Open:      last.Open,
		Time:      last.Time,
		Source:    "yahoo",
		PrevClose: last.Open,
	}
	if len(bars) >= 2 {
		q.PrevClose = bars[len(bars)-2].Close
	}
	q.Change = q.Price - q.PrevClose
	if q.PrevClose != 0 {
		q.ChangePercent = q.Change / q.PrevClose * 100
	}
	return q, nil
}

// CheckHealth implements HealthChecker by probing a chart request.
func (p *YahooProvider) CheckHealth(ctx context.Context, symbol string) error {
	now := time.Now()
	_, err := p.History(ctx, symbol, now.AddDate(0, 0, -7), now, "1d")
	return err
}
