package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetch orchestration and history retrieval.
var (
	// ErrAllProvidersDown means every remote provider has tripped its breaker.
	ErrAllProvidersDown = errors.New("all providers unavailable")

	// ErrHistoryUnavailable means no upstream could serve candle history.
	ErrHistoryUnavailable = errors.New("history unavailable")
)

// InvalidTickerError reports a ticker that fails syntactic validation.
type InvalidTickerError struct {
	Ticker string
}

func (e *InvalidTickerError) Error() string {
	return fmt.Sprintf("invalid ticker %q", e.Ticker)
}

// InsufficientDataError reports too little history to train on.
type InsufficientDataError struct {
	Ticker string
	Rows   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d rows, need %d", e.Ticker, e.Rows, e.Need)
}

// RateLimitedError reports an upstream 429.
type RateLimitedError struct {
	Provider   string
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Provider)
}

// UpstreamError reports a non-retriable upstream failure.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
