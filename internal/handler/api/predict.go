package api

import (
	"StockPulse/internal/domain/models"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictHandler serves the next-day direction endpoint.
type PredictHandler struct {
	logger     *xlogger.Logger
	prediction *usecase.PredictionService
}

// NewPredictHandler creates a predict handler.
func NewPredictHandler(logger *xlogger.Logger, prediction *usecase.PredictionService) *PredictHandler {
	return &PredictHandler{logger: logger, prediction: prediction}
}

func (h *PredictHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/predict", h.Predict)
}

func (h *PredictHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.prediction.Predict(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Error("prediction failed",
			xlogger.String("ticker", req.Ticker),
			xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
