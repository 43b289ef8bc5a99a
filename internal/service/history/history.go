package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/util"
)

// HistorySource serves OHLCV candles for a range.
type HistorySource interface {
	History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]models.Bar, error)
}

// QuoteSource serves point-in-time snapshots.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (*models.Quote, error)
}

// Option configures Service.
type Option func(*Service)

// Service fetches candle history and quotes with caching and optional
// ClickHouse persistence. The primary chart source is tried first,
// then fallback sources in order, then the bar store; quote sources
// are tried in order until one answers.
type Service struct {
	primary   HistorySource
	fallbacks []HistorySource
	quotes    []QuoteSource
	cache     cache.Service
	barStore  repository.BarStore
	metrics   *metrics.Recorder
	log       *logger.Logger
	candleTTL time.Duration
	quoteTTL  time.Duration
}

// NewService creates a history service.
func NewService(primary HistorySource, quotes []QuoteSource, cacheSvc cache.Service, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		primary:   primary,
		quotes:    quotes,
		cache:     cacheSvc,
		log:       log,
		candleTTL: 30 * time.Minute,
		quoteTTL:  5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithFallbackSource appends a secondary candle source tried when the
// primary fails or comes back empty.
func WithFallbackSource(src HistorySource) Option {
	return func(s *Service) {
		if src != nil {
			s.fallbacks = append(s.fallbacks, src)
		}
	}
}

// WithBarStore enables ClickHouse persistence and fallback reads.
func WithBarStore(store repository.BarStore) Option {
	return func(s *Service) {
		s.barStore = store
	}
}

// WithMetrics attaches a Prometheus recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = rec
	}
}

// WithTTLs overrides cache lifetimes.
func WithTTLs(candle, quote time.Duration) Option {
	return func(s *Service) {
		if candle > 0 {
			s.candleTTL = candle
		}
		if quote > 0 {
			s.quoteTTL = quote
		}
	}
}

// GetHistory returns candles for a ticker over a period string like
// "2y". Results are cached; on upstream failure the bar store (when
// configured) serves what it has.
func (s *Service) GetHistory(ctx context.Context, ticker, period, interval string) ([]models.Bar, error) {
	if period == "" {
		period = "2y"
	}
	if interval == "" {
		interval = "1d"
	}

	key := fmt.Sprintf("candles:%s:%s:%s", ticker, period, interval)
	var cached []models.Bar
	if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		s.observeCache("candles", "hit")
		return cached, nil
	}
	s.observeCache("candles", "miss")

	from, to, err := util.PeriodRange(period, time.Now())
	if err != nil {
		return nil, fmt.Errorf("bad period %q: %w", period, err)
	}

	bars, err := s.primary.History(ctx, ticker, from, to, interval)
	if err != nil {
		var rateErr *models.RateLimitedError
		if errors.As(err, &rateErr) {
			return nil, err
		}
		s.log.Warn("primary history source failed",
			logger.String("ticker", ticker),
			logger.Error(err))
	} else if len(bars) == 0 {
		err = models.ErrHistoryUnavailable
	}

	if err != nil {
		bars, err = s.fallbackSources(ctx, ticker, interval, from, to, err)
	}
	if err != nil {
		return s.storedBars(ctx, ticker, interval, from, to, err)
	}

	if err := s.cache.Set(ctx, key, bars, s.candleTTL); err != nil {
		s.log.Warn("candle cache write failed", logger.Error(err))
	}
	s.persistBars(ticker, interval, bars)
	return bars, nil
}

// fallbackSources tries secondary upstreams in order. Rate limits
// propagate immediately; other failures move to the next source.
func (s *Service) fallbackSources(ctx context.Context, ticker, interval string, from, to time.Time, cause error) ([]models.Bar, error) {
	for _, src := range s.fallbacks {
		bars, err := src.History(ctx, ticker, from, to, interval)
		if err != nil {
			var rateErr *models.RateLimitedError
			if errors.As(err, &rateErr) {
				return nil, err
			}
			s.log.Warn("fallback history source failed",
				logger.String("ticker", ticker),
				logger.Error(err))
			cause = err
			continue
		}
		if len(bars) == 0 {
			continue
		}
		return bars, nil
	}
	return nil, cause
}

// storedBars serves persisted history when no upstream can.
func (s *Service) storedBars(ctx context.Context, ticker, interval string, from, to time.Time, cause error) ([]models.Bar, error) {
	var rateErr *models.RateLimitedError
	if errors.As(cause, &rateErr) {
		return nil, cause
	}
	if s.barStore == nil {
		return nil, fmt.Errorf("%w: %v", models.ErrHistoryUnavailable, cause)
	}
	bars, err := s.barStore.QueryBars(ctx, ticker, interval, from, to)
	if err != nil || len(bars) == 0 {
		return nil, fmt.Errorf("%w: %v", models.ErrHistoryUnavailable, cause)
	}
	s.log.Info("served history from store",
		logger.String("ticker", ticker),
		logger.Int("bars", len(bars)))
	return bars, nil
}

// persistBars writes history to the bar store in the background.
func (s *Service) persistBars(ticker, interval string, bars []models.Bar) {
	if s.barStore == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.barStore.StoreBars(ctx, ticker, interval, bars); err != nil {
			s.log.Warn("bar store write failed",
				logger.String("ticker", ticker),
				logger.Error(err))
		}
	}()
}

// GetQuote returns the latest snapshot, trying sources in order.
func (s *Service) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	key := "quote:" + ticker
	var cached models.Quote
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached.Ticker != "" {
		s.observeCache("quote", "hit")
		return &cached, nil
	}
	s.observeCache("quote", "miss")

	var lastErr error
	for _, src := range s.quotes {
		q, err := src.Quote(ctx, ticker)
		if err != nil {
			var rateErr *models.RateLimitedError
			if errors.As(err, &rateErr) {
				return nil, err
			}
			lastErr = err
			continue
		}

		if err := s.cache.Set(ctx, key, q, s.quoteTTL); err != nil {
			s.log.Warn("quote cache write failed", logger.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordLastPrice(ticker, q.Price)
		}
		return q, nil
	}

	if lastErr == nil {
		lastErr = models.ErrHistoryUnavailable
	}
	return nil, fmt.Errorf("quote %s: %w", ticker, lastErr)
}

func (s *Service) observeCache(op, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCacheOp(op, outcome)
	}
}
