package api

import (
	"time"

	"StockPulse/pkg/cache"
	"StockPulse/pkg/clickhouse"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthHandler serves liveness and dependency health endpoints.
type HealthHandler struct {
	logger     *xlogger.Logger
	cache      cache.Service
	clickhouse *clickhouse.Client
	started    time.Time
}

// NewHealthHandler creates a health handler. clickhouse may be nil
// when persistence is disabled.
func NewHealthHandler(logger *xlogger.Logger, cacheSvc cache.Service, ch *clickhouse.Client) *HealthHandler {
	return &HealthHandler{
		logger:     logger,
		cache:      cacheSvc,
		clickhouse: ch,
		started:    time.Now(),
	}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/health")
	g.GET("", h.Health)
	g.GET("/cache", h.Cache)
}

func (h *HealthHandler) Health(c echo.Context) error {
	payload := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}

	if h.clickhouse != nil {
		if err := h.clickhouse.Health(c.Request().Context()); err != nil {
			payload["clickhouse"] = "down"
			h.logger.Warn("clickhouse health check failed", xlogger.Error(err))
		} else {
			payload["clickhouse"] = "ok"
		}
	}

	return xhttp.SuccessResponse(c, payload)
}

func (h *HealthHandler) Cache(c echo.Context) error {
	stats, err := h.cache.Stats(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("cache stats unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, stats)
}
