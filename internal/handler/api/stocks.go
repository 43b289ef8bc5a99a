package api

import (
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/orchestrator"
	"StockPulse/internal/provider"
	"StockPulse/internal/service/history"
	"StockPulse/pkg/cache"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StocksHandler serves listing, search and candle endpoints.
type StocksHandler struct {
	logger    *xlogger.Logger
	local     *provider.LocalProvider
	orch      *orchestrator.Orchestrator
	history   *history.Service
	cache     cache.Service
	listTTL   time.Duration
	searchTTL time.Duration
}

// NewStocksHandler creates a stocks handler.
func NewStocksHandler(logger *xlogger.Logger, local *provider.LocalProvider, orch *orchestrator.Orchestrator, hist *history.Service, cacheSvc cache.Service, listTTL, searchTTL time.Duration) *StocksHandler {
	if listTTL <= 0 {
		listTTL = time.Hour
	}
	if searchTTL <= 0 {
		searchTTL = 5 * time.Minute
	}
	return &StocksHandler{
		logger:    logger,
		local:     local,
		orch:      orch,
		history:   hist,
		cache:     cacheSvc,
		listTTL:   listTTL,
		searchTTL: searchTTL,
	}
}

func (h *StocksHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/stocks", h.Search)
	g.GET("/stocks/:ticker", h.Detail)
	g.GET("/stocks/:ticker/candles", h.Candles)
	g.GET("/stocks/:ticker/quote", h.Quote)
}

// Detail serves one catalog record by exact ticker.
func (h *StocksHandler) Detail(c echo.Context) error {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker is required"))
	}

	record, err := h.local.Lookup(c.Request().Context(), ticker)
	if err != nil {
		h.logger.Error("catalog lookup failed", xlogger.String("ticker", ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("catalog lookup failed").WithError(err))
	}
	if record == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown ticker %s", ticker))
	}
	return xhttp.SuccessResponse(c, record)
}

// splitTerms turns the raw query into search terms: comma-separated
// groups, each group one term (spaces inside a group stay intact so
// company names survive).
func splitTerms(q string) []string {
	var terms []string
	for _, part := range strings.Split(q, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

// Search lists or searches stocks. Without a query the full local
// catalog is served (cached). With a query the local catalog is the
// first line, then the remote cascade fills in.
func (h *StocksHandler) Search(c echo.Context) error {
	req := &models.StockSearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	terms := splitTerms(req.Query)

	cacheKey := "stocks:list"
	ttl := h.listTTL
	if len(terms) > 0 {
		cacheKey = "stocks:search:" + strings.ToLower(req.Query)
		ttl = h.searchTTL
	}

	var cached []models.StockRecord
	if err := h.cache.Get(ctx, cacheKey, &cached); err == nil && cached != nil {
		return listResponse(c, cached, req.Limit)
	}

	var results []models.StockRecord
	seen := make(map[string]struct{})
	merge := func(records []models.StockRecord) {
		for _, r := range records {
			key := strings.ToUpper(r.Ticker)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, r)
		}
	}

	if len(terms) > 0 {
		// First-line local search before spending remote quota.
		if local, err := h.local.Fetch(ctx, terms); err == nil {
			merge(local)
		} else {
			h.logger.Warn("local search failed", xlogger.Error(err))
		}
	}

	remote, err := h.orch.FetchAll(ctx, terms)
	if err != nil {
		if len(results) == 0 {
			return domainErrorResponse(c, err)
		}
		h.logger.Warn("remote cascade failed, serving local results", xlogger.Error(err))
	}
	merge(remote)

	if results == nil {
		results = []models.StockRecord{}
	}
	if err := h.cache.Set(ctx, cacheKey, results, ttl); err != nil {
		h.logger.Warn("stock cache write failed", xlogger.Error(err))
	}
	return listResponse(c, results, req.Limit)
}

func listResponse(c echo.Context, records []models.StockRecord, limit int) error {
	total := int64(len(records))
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return xhttp.ListResponse(c, records, total)
}

// Candles serves OHLCV history for one ticker.
func (h *StocksHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker is required"))
	}

	bars, err := h.history.GetHistory(c.Request().Context(), ticker, req.Period, req.Interval)
	if err != nil {
		h.logger.Error("candles fetch failed", xlogger.String("ticker", ticker), xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, bars, int64(len(bars)))
}

// Quote serves the latest snapshot for one ticker.
func (h *StocksHandler) Quote(c echo.Context) error {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker is required"))
	}

	q, err := h.history.GetQuote(c.Request().Context(), ticker)
	if err != nil {
		h.logger.Error("quote fetch failed", xlogger.String("ticker", ticker), xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, q)
}
