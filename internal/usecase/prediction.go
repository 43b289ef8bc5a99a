package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/features"
	"StockPulse/internal/ml"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
)

// HistoryGetter serves candle history for the prediction pipeline.
type HistoryGetter interface {
	GetHistory(ctx context.Context, ticker, period, interval string) ([]models.Bar, error)
}

// PredictionConfig holds pipeline thresholds and model parameters.
type PredictionConfig struct {
	HistoryPeriod    string
	HistoryInterval  string
	MinBars          int
	MinFeatureRows   int
	ConfidenceHigh   float64
	ConfidenceMedium float64
	CacheTTL         time.Duration
	Model            ml.Config
}

// DefaultPredictionConfig returns the standard pipeline configuration.
func DefaultPredictionConfig() PredictionConfig {
	return PredictionConfig{
		HistoryPeriod:    "2y",
		HistoryInterval:  "1d",
		MinBars:          200,
		MinFeatureRows:   100,
		ConfidenceHigh:   0.65,
		ConfidenceMedium: 0.55,
		CacheTTL:         10 * time.Minute,
		Model:            ml.DefaultConfig(),
	}
}

// PredictionService produces next-day direction predictions: fetch
// history, engineer features, walk-forward validate, fit the final
// model and score the most recent row. Whole results are cached per
// ticker since retraining per request is expensive.
type PredictionService struct {
	history HistoryGetter
	cache   cache.Service
	cfg     PredictionConfig
	metrics *metrics.Recorder
	log     *logger.Logger
}

// NewPredictionService creates a prediction service.
func NewPredictionService(history HistoryGetter, cacheSvc cache.Service, cfg PredictionConfig, log *logger.Logger, rec *metrics.Recorder) *PredictionService {
	return &PredictionService{
		history: history,
		cache:   cacheSvc,
		cfg:     cfg,
		metrics: rec,
		log:     log,
	}
}

// validTicker enforces the ticker charset before any network call.
func validTicker(ticker string) bool {
	if ticker == "" || len(ticker) > 24 {
		return false
	}
	for _, r := range ticker {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '&':
		default:
			return false
		}
	}
	return true
}

// Predict runs the full pipeline for one ticker.
func (s *PredictionService) Predict(ctx context.Context, ticker string) (*models.PredictionResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !validTicker(ticker) {
		return nil, &models.InvalidTickerError{Ticker: ticker}
	}

	key := "prediction:" + ticker
	var cached models.PredictionResult
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached.Ticker != "" {
		s.observeCache("prediction", "hit")
		cached.Cached = true
		return &cached, nil
	}
	s.observeCache("prediction", "miss")

	start := time.Now()
	result, err := s.compute(ctx, ticker)
	if s.metrics != nil {
		s.metrics.RecordLatency("predict", time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
		s.log.Warn("prediction cache write failed", logger.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordPrediction(result.Direction, result.Confidence)
	}
	return result, nil
}

func (s *PredictionService) compute(ctx context.Context, ticker string) (*models.PredictionResult, error) {
	bars, err := s.history.GetHistory(ctx, ticker, s.cfg.HistoryPeriod, s.cfg.HistoryInterval)
	if err != nil {
		return nil, err
	}
	if len(bars) < s.cfg.MinBars {
		return nil, &models.InsufficientDataError{Ticker: ticker, Rows: len(bars), Need: s.cfg.MinBars}
	}

	frame, err := features.Engineer(bars)
	if err != nil {
		return nil, fmt.Errorf("engineer features for %s: %w", ticker, err)
	}
	valid := frame.Valid()
	if valid.Rows() < s.cfg.MinFeatureRows {
		return nil, &models.InsufficientDataError{Ticker: ticker, Rows: valid.Rows(), Need: s.cfg.MinFeatureRows}
	}

	X := valid.Data
	y := valid.Target

	validation, err := ml.WalkForward(X, y, s.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("walk-forward for %s: %w", ticker, err)
	}

	clf, err := ml.FinalFit(X, y, s.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("final fit for %s: %w", ticker, err)
	}

	probUp := clf.PredictProba(X[len(X)-1])
	direction := models.DirectionDown
	if probUp >= 0.5 {
		direction = models.DirectionUp
	}

	last := valid.Rows() - 1
	result := &models.PredictionResult{
		Ticker:           ticker,
		LastDate:         valid.Times[last].Format("2006-01-02"),
		LatestClose:      valid.Closes[last],
		Direction:        direction,
		ProbabilityUp:    probUp,
		Confidence:       ml.ConfidenceLabel(probUp, s.cfg.ConfidenceHigh, s.cfg.ConfidenceMedium),
		TestAccuracyAvg:  validation.AvgAccuracy,
		BaselineAccuracy: ml.Baseline(y),
		SplitsUsed:       validation.SplitsUsed,
		SampleCount:      validation.TestSamples,
	}

	s.log.Info("prediction computed",
		logger.String("ticker", ticker),
		logger.String("direction", direction),
		logger.Float64("probability_up", probUp),
		logger.Float64("test_accuracy", validation.AvgAccuracy),
		logger.Int("samples", validation.TestSamples))

	return result, nil
}

func (s *PredictionService) observeCache(op, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCacheOp(op, outcome)
	}
}
