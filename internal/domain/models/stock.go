package models

// StockRecord is a listed instrument as reported by a data provider.
type StockRecord struct {
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Sector    string   `json:"sector,omitempty"`
	Exchange  string   `json:"exchange,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	LastPrice *float64 `json:"last_price,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// ProviderStatus describes one provider's circuit state.
type ProviderStatus struct {
	Name       string   `json:"name"`
	Priority   int      `json:"priority"`
	Markets    []string `json:"markets,omitempty"`
	Available  bool     `json:"available"`
	ErrorCount int      `json:"error_count"`
	MaxErrors  int      `json:"max_errors"`
	Pinned     bool     `json:"pinned"`
}

// ProviderHealth is the result of an advisory health probe.
type ProviderHealth struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
