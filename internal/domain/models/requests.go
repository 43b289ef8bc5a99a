package models

// StockSearchRequest is the query surface of GET /api/stocks.
type StockSearchRequest struct {
	Query string `query:"q" validate:"omitempty,max=128"`
	Limit int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

// CandlesRequest is the query surface of GET /api/stocks/:ticker/candles.
type CandlesRequest struct {
	Period   string `query:"period" default:"2y" validate:"omitempty,max=8"`
	Interval string `query:"interval" default:"1d" validate:"omitempty,oneof=1d 1wk 1mo"`
}

// PredictRequest is the query surface of GET /api/predict.
type PredictRequest struct {
	Ticker string `query:"ticker" validate:"required,max=24"`
}
