package api

import (
	"StockPulse/internal/orchestrator"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ProvidersHandler exposes breaker state, health probes and resets.
type ProvidersHandler struct {
	logger *xlogger.Logger
	orch   *orchestrator.Orchestrator
}

// NewProvidersHandler creates a providers handler.
func NewProvidersHandler(logger *xlogger.Logger, orch *orchestrator.Orchestrator) *ProvidersHandler {
	return &ProvidersHandler{logger: logger, orch: orch}
}

func (h *ProvidersHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/providers")
	g.GET("/status", h.Status)
	g.GET("/health", h.Health)
	g.POST("/reset", h.ResetAll)
	g.POST("/:name/reset", h.Reset)
}

// Status reports each provider's breaker state.
func (h *ProvidersHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Status())
}

// Health probes providers with a minimal fetch. Advisory only: a
// failed probe never trips a breaker.
func (h *ProvidersHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.HealthCheck(c.Request().Context()))
}

// Reset clears one provider's breaker.
func (h *ProvidersHandler) Reset(c echo.Context) error {
	name := c.Param("name")
	if err := h.orch.ResetErrors(name); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	h.logger.Info("provider breaker reset", xlogger.String("provider", name))
	return xhttp.SuccessResponse(c, h.orch.Status())
}

// ResetAll clears every provider's breaker.
func (h *ProvidersHandler) ResetAll(c echo.Context) error {
	_ = h.orch.ResetErrors("")
	h.logger.Info("all provider breakers reset")
	return xhttp.SuccessResponse(c, h.orch.Status())
}
