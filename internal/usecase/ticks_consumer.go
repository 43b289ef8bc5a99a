package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
)

// TicksHandler consumes tick messages from Kafka and persists them.
// It is the read side of the pipeline: the publisher writes keyed
// payloads, this handler replays them into the tick store.
type TicksHandler struct {
	topic   string
	store   repository.TickStore
	metrics *metrics.Recorder
	log     *logger.Logger
}

// NewTicksHandler creates a consumer handler for the given topic.
func NewTicksHandler(topic string, store repository.TickStore, log *logger.Logger, rec *metrics.Recorder) *TicksHandler {
	return &TicksHandler{topic: topic, store: store, metrics: rec, log: log}
}

func (h *TicksHandler) Topic() string { return h.topic }

type tickMessage struct {
	Symbol string  `json:"symbol"`
	T      int64   `json:"t"`
	C      float64 `json:"c"`
	V      float64 `json:"v"`
}

// Handle decodes one tick payload and stores it. Malformed payloads
// are dropped after logging; returning an error would retry a message
// that can never succeed.
func (h *TicksHandler) Handle(ctx context.Context, payload []byte) error {
	var msg tickMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.log.Warn("dropping malformed tick payload", logger.Error(err))
		return nil
	}
	if msg.Symbol == "" {
		h.log.Warn("dropping tick without symbol")
		return nil
	}

	tick := &models.Tick{
		Symbol: msg.Symbol,
		Price:  msg.C,
		Volume: msg.V,
		Time:   time.UnixMilli(msg.T).UTC(),
	}
	if err := h.store.StoreBatch(ctx, []*models.Tick{tick}); err != nil {
		return fmt.Errorf("store tick %s: %w", msg.Symbol, err)
	}
	if h.metrics != nil {
		h.metrics.RecordLastPrice(msg.Symbol, msg.C)
	}
	return nil
}
