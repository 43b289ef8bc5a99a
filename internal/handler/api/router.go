package api

import (
	"github.com/labstack/echo/v4"
)

// Router composes the API handlers into a single route registrar.
type Router struct {
	stocks    *StocksHandler
	predict   *PredictHandler
	providers *ProvidersHandler
	health    *HealthHandler
}

// NewRouter creates the composite router.
func NewRouter(stocks *StocksHandler, predict *PredictHandler, providers *ProvidersHandler, health *HealthHandler) *Router {
	return &Router{stocks: stocks, predict: predict, providers: providers, health: health}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.stocks.RegisterRoutes(e)
	r.predict.RegisterRoutes(e)
	r.providers.RegisterRoutes(e)
	r.health.RegisterRoutes(e)
}
