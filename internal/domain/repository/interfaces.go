package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// BarStore persists and serves OHLCV history.
type BarStore interface {
	StoreBars(ctx context.Context, ticker, interval string, bars []models.Bar) error
	QueryBars(ctx context.Context, ticker, interval string, from, to time.Time) ([]models.Bar, error)
	Health(ctx context.Context) error
}

// TickStore persists streaming trade ticks.
type TickStore interface {
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Health(ctx context.Context) error
}

// TickPublisher forwards ticks to a message broker.
type TickPublisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}
