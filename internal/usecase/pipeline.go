package usecase

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/stream"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
)

// TickPipeline drains a live market stream into Kafka and the tick
// store. Batches are flushed on size or on a timer, whichever first.
type TickPipeline struct {
	stream    stream.MarketStream
	publisher repository.TickPublisher
	store     repository.TickStore
	metrics   *metrics.Recorder
	log       *logger.Logger

	batchSize     int
	flushInterval time.Duration
}

// NewTickPipeline creates a tick pipeline. publisher and store may be
// nil individually; the pipeline forwards to whichever are present.
func NewTickPipeline(ms stream.MarketStream, publisher repository.TickPublisher, store repository.TickStore, log *logger.Logger, rec *metrics.Recorder) *TickPipeline {
	return &TickPipeline{
		stream:        ms,
		publisher:     publisher,
		store:         store,
		metrics:       rec,
		log:           log,
		batchSize:     200,
		flushInterval: 2 * time.Second,
	}
}

// Run connects, subscribes and pumps ticks until the context ends.
// Stream failures trigger reconnects rather than aborting.
func (p *TickPipeline) Run(ctx context.Context) error {
	if err := p.stream.Connect(ctx); err != nil {
		return err
	}
	if err := p.stream.Subscribe(ctx); err != nil {
		return err
	}

	for {
		if err := p.pump(ctx); err != nil {
			select {
			case <-ctx.Done():
				_ = p.stream.Close()
				return ctx.Err()
			default:
			}
			p.log.Warn("stream interrupted, reconnecting", logger.Error(err))
			if err := p.stream.Reconnect(ctx); err != nil {
				p.log.Error("stream reconnect failed", logger.Error(err))
			}
			continue
		}
		_ = p.stream.Close()
		return nil
	}
}

// pump reads one connection's worth of ticks. Returns nil when the
// context ends, an error when the stream breaks.
func (p *TickPipeline) pump(ctx context.Context) error {
	ticks, errs := p.stream.Read(ctx)

	batch := make([]*models.Tick, 0, p.batchSize)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case err, ok := <-errs:
			flush()
			if !ok {
				return nil
			}
			return err
		case t, ok := <-ticks:
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, t)
			if p.metrics != nil {
				p.metrics.RecordLastPrice(t.Symbol, t.Price)
			}
			if len(batch) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// flush uses a detached context so in-flight writes survive shutdown.
func (p *TickPipeline) flush(batch []*models.Tick) {
	fctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if p.publisher != nil {
		if err := p.publisher.PublishBatch(fctx, batch); err != nil {
			p.log.Warn("tick publish failed",
				logger.Int("ticks", len(batch)),
				logger.Error(err))
		}
	}
	if p.store != nil {
		if err := p.store.StoreBatch(fctx, batch); err != nil {
			p.log.Warn("tick store failed",
				logger.Int("ticks", len(batch)),
				logger.Error(err))
		}
	}
}
