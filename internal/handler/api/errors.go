package api

import (
	"errors"
	"fmt"

	"StockPulse/internal/domain/models"
	xhttp "StockPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// domainErrorResponse maps domain failures onto the API error surface.
func domainErrorResponse(c echo.Context, err error) error {
	var invalidErr *models.InvalidTickerError
	if errors.As(err, &invalidErr) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(invalidErr.Error()))
	}

	var insufficientErr *models.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		appErr := xhttp.UnprocessableError(insufficientErr.Error()).
			WithParam("ticker", insufficientErr.Ticker).
			WithParam("rows", insufficientErr.Rows).
			WithParam("need", insufficientErr.Need)
		return xhttp.AppErrorResponse(c, appErr)
	}

	var rateErr *models.RateLimitedError
	if errors.As(err, &rateErr) {
		msg := fmt.Sprintf("rate limited by %s", rateErr.Provider)
		return xhttp.AppErrorResponse(c, xhttp.RateLimitedError(msg, rateErr.RetryAfter))
	}

	if errors.Is(err, models.ErrAllProvidersDown) {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("all data providers are unavailable"))
	}
	if errors.Is(err, models.ErrHistoryUnavailable) {
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError("no upstream could serve history"))
	}

	return xhttp.AppErrorResponse(c, err)
}
