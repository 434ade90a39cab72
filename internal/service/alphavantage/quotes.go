package alphavantage

import (
	"context"
	"fmt"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	applogger "FinWatch/pkg/logger"
	"FinWatch/pkg/util"
)

const sparklinePoints = 30

// FetchStockQuotes fetches quotes one ticker at a time. Failures are
// isolated per ticker and returned in the error map; once the key pool is
// exhausted the remaining tickers are served from cache only.
func (c *Client) FetchStockQuotes(ctx context.Context, items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error) {
	assets := make(map[string]models.FinancialAsset, len(items))
	errs := make(map[string]error)

	var limited error
	for _, item := range items {
		key := item.Key()
		if _, done := assets[key]; done {
			continue
		}

		if limited != nil {
			if asset, ok := c.cachedQuote(ctx, item); ok {
				assets[key] = asset
			} else {
				errs[key] = limited
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			errs[key] = models.NewFetchError(models.KindNetwork, providerName+" quote", err)
			continue
		}

		asset, err := c.FetchStockQuote(ctx, item)
		if err != nil {
			errs[key] = err
			if isRateLimit(err) {
				limited = err
			}
			c.l.Warn("stock quote failed",
				applogger.String("ticker", item.Symbol()),
				applogger.String("kind", string(models.KindOf(err))),
				applogger.Error(err),
			)
			continue
		}
		assets[key] = asset
	}
	return assets, errs
}

// FetchStockQuote returns the quote for one ticker, cache first.
func (c *Client) FetchStockQuote(ctx context.Context, item models.WatchlistItem) (models.FinancialAsset, error) {
	symbol := item.Symbol()
	asset, err := cached(ctx, c, cache.TypeQuote, symbol, func(ctx context.Context) (models.FinancialAsset, error) {
		var resp globalQuoteResponse
		if err := c.api.Get(ctx, params("GLOBAL_QUOTE", "symbol", symbol), &resp); err != nil {
			return models.FinancialAsset{}, fmt.Errorf("quote %s: %w", symbol, err)
		}
		q := resp.GlobalQuote
		if q.Symbol == "" && q.Price == "" {
			return models.FinancialAsset{}, noData("quote " + symbol)
		}
		return models.FinancialAsset{
			Ticker:    item.Ticker,
			Type:      models.AssetStock,
			Price:     util.ParseNumber(q.Price),
			Change24h: util.ParseNumber(q.ChangePercent),
		}, nil
	})
	if err != nil {
		return models.FinancialAsset{}, err
	}

	asset.Ticker = item.Ticker
	asset.Sparkline = c.sparkline(ctx, symbol)
	c.metrics.RecordLastPrice(symbol, asset.Price)
	return asset, nil
}

func (c *Client) cachedQuote(ctx context.Context, item models.WatchlistItem) (models.FinancialAsset, bool) {
	asset, ok := cache.Get[models.FinancialAsset](ctx, c.cache, c.cache.CacheKey(cache.TypeQuote, item.Symbol()))
	if !ok {
		return models.FinancialAsset{}, false
	}
	asset.Ticker = item.Ticker
	asset.Sparkline = c.sparkline(ctx, item.Symbol())
	return asset, true
}

// sparkline reuses the cached daily chart; it never spends a request.
func (c *Client) sparkline(ctx context.Context, symbol string) []float64 {
	points, ok := cache.Get[[]models.ChartDataPoint](ctx, c.cache, c.cache.CacheKey(cache.TypeChart, chartID(symbol)))
	if !ok || len(points) == 0 {
		return []float64{}
	}
	if len(points) > sparklinePoints {
		points = points[len(points)-sparklinePoints:]
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}
