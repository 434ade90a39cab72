package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/metrics"
	"FinWatch/internal/service/ratelimit"
	xhttp "FinWatch/pkg/http"
	xlogger "FinWatch/pkg/logger"
)

// Market is the data layer the handler serves.
type Market interface {
	FetchWatchlistData(ctx context.Context, items []models.WatchlistItem) *models.WatchlistResult
	FetchAssetDailyChart(ctx context.Context, item models.WatchlistItem) ([]models.ChartDataPoint, error)
	SearchSymbol(ctx context.Context, query string) ([]models.SymbolMatch, error)
	FetchCompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error)
	FetchTopMovers(ctx context.Context) (*models.TopMovers, error)
	FetchNewsForTicker(ctx context.Context, ticker string, assetType models.AssetType) ([]models.NewsItem, error)
	FetchRSI(ctx context.Context, symbol string) (*models.RSIResult, error)
	FetchMACD(ctx context.Context, symbol string) (*models.MACDResult, error)
	FetchBollingerBands(ctx context.Context, symbol string, price float64) (*models.BollingerResult, error)
	GetRemainingRequests(ctx context.Context) models.RemainingRequests
	AddAPIKey(ctx context.Context, key string) bool
}

// ClientRate is the per-client token bucket.
type ClientRate struct {
	Capacity     float64
	RefillPerSec float64
}

type MarketEchoHandler struct {
	logger  *xlogger.Logger
	market  Market
	limiter *ratelimit.Limiter
	rate    ClientRate
	timeout time.Duration
}

func NewMarketEchoHandler(logger *xlogger.Logger, market Market, limiter *ratelimit.Limiter, rate ClientRate, timeout time.Duration) *MarketEchoHandler {
	metrics.Register()
	return &MarketEchoHandler{logger: logger, market: market, limiter: limiter, rate: rate, timeout: timeout}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/healthz", h.Health)

	g := e.Group("/api", h.throttle)
	g.POST("/watchlist", h.Watchlist)
	g.GET("/chart", h.Chart)
	g.GET("/search", h.Search)
	g.GET("/company", h.Company)
	g.GET("/movers", h.Movers)
	g.GET("/news", h.News)
	g.GET("/indicators/rsi", h.RSI)
	g.GET("/indicators/macd", h.MACD)
	g.GET("/indicators/bbands", h.Bollinger)
	g.GET("/keys/remaining", h.RemainingRequests)
	g.POST("/keys", h.AddKey)
}

// throttle rejects clients that exhausted their token bucket.
func (h *MarketEchoHandler) throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil || h.rate.Capacity <= 0 {
			return next(c)
		}
		if !h.limiter.Allow("client:"+c.RealIP(), h.rate.Capacity, h.rate.RefillPerSec) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
		}
		return next(c)
	}
}

func (h *MarketEchoHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

// fail maps data layer errors onto HTTP statuses.
func (h *MarketEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	h.logger.Error("market request failed",
		xlogger.String("endpoint", endpoint),
		xlogger.String("kind", string(models.KindOf(err))),
		xlogger.Error(err),
	)
	switch models.KindOf(err) {
	case models.KindRateLimit:
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("provider quota exhausted, retry later").WithError(err))
	case models.KindNetwork:
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("market data provider unreachable").WithError(err))
	default:
		return xhttp.AppErrorResponse(c, xhttp.InternalError("market data request failed").WithError(err))
	}
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *MarketEchoHandler) Watchlist(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	res := h.market.FetchWatchlistData(ctx, req.Items)
	metrics.Observe("watchlist", start, nil)
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	points, err := h.market.FetchAssetDailyChart(ctx, models.WatchlistItem{Ticker: req.Ticker, Type: req.Type})
	metrics.Observe("chart", start, err)
	if err != nil {
		return h.fail(c, "chart", err)
	}
	return xhttp.SuccessResponse(c, points)
}

func (h *MarketEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	matches, err := h.market.SearchSymbol(ctx, req.Query)
	metrics.Observe("search", start, err)
	if err != nil {
		return h.fail(c, "search", err)
	}
	return xhttp.SuccessResponse(c, matches)
}

func (h *MarketEchoHandler) Company(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	ov, err := h.market.FetchCompanyOverview(ctx, req.Symbol)
	metrics.Observe("company", start, err)
	if err != nil {
		return h.fail(c, "company", err)
	}
	if ov == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no company data").WithParam("symbol", req.Symbol))
	}
	return xhttp.SuccessResponse(c, ov)
}

func (h *MarketEchoHandler) Movers(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	tm, err := h.market.FetchTopMovers(ctx)
	metrics.Observe("movers", start, err)
	if err != nil {
		return h.fail(c, "movers", err)
	}
	if tm == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no market movers"))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, tm)
}

func (h *MarketEchoHandler) News(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	news, err := h.market.FetchNewsForTicker(ctx, req.Ticker, req.Type)
	metrics.Observe("news", start, err)
	if err != nil {
		return h.fail(c, "news", err)
	}
	return xhttp.SuccessResponse(c, news)
}

func (h *MarketEchoHandler) RSI(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	res, err := h.market.FetchRSI(ctx, req.Symbol)
	metrics.Observe("rsi", start, err)
	if err != nil {
		return h.fail(c, "rsi", err)
	}
	if res == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no indicator data").WithParam("symbol", req.Symbol))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) MACD(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	res, err := h.market.FetchMACD(ctx, req.Symbol)
	metrics.Observe("macd", start, err)
	if err != nil {
		return h.fail(c, "macd", err)
	}
	if res == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no indicator data").WithParam("symbol", req.Symbol))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Bollinger(c echo.Context) error {
	req := &models.BollingerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	start := time.Now()
	res, err := h.market.FetchBollingerBands(ctx, req.Symbol, req.Price)
	metrics.Observe("bbands", start, err)
	if err != nil {
		return h.fail(c, "bbands", err)
	}
	if res == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no indicator data").WithParam("symbol", req.Symbol))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) RemainingRequests(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.market.GetRemainingRequests(c.Request().Context()))
}

func (h *MarketEchoHandler) AddKey(c echo.Context) error {
	req := &models.AddKeyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.market.AddAPIKey(c.Request().Context(), req.Key) {
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("ERR_DUPLICATE_KEY", "key", "key is already configured"))
	}
	return xhttp.CreatedResponse(c, h.market.GetRemainingRequests(c.Request().Context()))
}
