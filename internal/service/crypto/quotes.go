package crypto

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	applogger "FinWatch/pkg/logger"
)

// FetchCryptoQuotes fetches every item concurrently. Failures are isolated
// per ticker and returned in the error map.
func (c *Client) FetchCryptoQuotes(ctx context.Context, items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error) {
	var (
		mu     sync.Mutex
		assets = make(map[string]models.FinancialAsset, len(items))
		errs   = make(map[string]error)
		seen   = make(map[string]struct{}, len(items))
	)

	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for _, item := range items {
		key := item.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		g.Go(func() error {
			asset, err := c.FetchCryptoQuote(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[key] = err
				c.l.Warn("crypto quote failed",
					applogger.String("ticker", item.Symbol()),
					applogger.String("kind", string(models.KindOf(err))),
					applogger.Error(err),
				)
				return nil
			}
			assets[key] = asset
			return nil
		})
	}
	_ = g.Wait()
	return assets, errs
}

// FetchCryptoQuote returns one quote, cache first.
func (c *Client) FetchCryptoQuote(ctx context.Context, item models.WatchlistItem) (models.FinancialAsset, error) {
	symbol := item.Symbol()
	key := c.cache.CacheKey(cache.TypeQuote, "crypto_"+symbol)

	q, ok := cache.Get[quote](ctx, c.cache, key)
	if !ok {
		var err error
		if q, err = c.loadQuote(ctx, symbol); err != nil {
			return models.FinancialAsset{}, err
		}
		cache.Set(ctx, c.cache, key, q, cache.TypeQuote.TTL())
	}

	asset := models.FinancialAsset{
		Ticker:    item.Ticker,
		Type:      models.AssetCrypto,
		Price:     q.Price,
		Change24h: q.Change24h,
	}
	asset.Sparkline, asset.SparklineApproximate = c.sparkline(ctx, symbol, q)
	c.metrics.RecordLastPrice(symbol, q.Price)
	return asset, nil
}

func (c *Client) loadQuote(ctx context.Context, symbol string) (quote, error) {
	op := providerName + " quote " + symbol
	var resp quoteResponse
	if err := c.get(ctx, op, c.quotePath, map[string][]string{"symbol": {symbol}}, &resp); err != nil {
		return quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if !successful(resp.Status) || len(resp.Symbols) == 0 {
		return quote{}, noData(op)
	}

	s := resp.Symbols[0]
	return quote{
		Price:     s.Last.InexactFloat64(),
		Change24h: s.DailyChangePercentage.InexactFloat64(),
		High:      s.Highest.InexactFloat64(),
		Low:       s.Lowest.InexactFloat64(),
	}, nil
}

// sparkline prefers the cached real history and falls back to a
// synthesized series flagged as approximate.
func (c *Client) sparkline(ctx context.Context, symbol string, q quote) ([]float64, bool) {
	points, ok := cache.Get[[]models.ChartDataPoint](ctx, c.cache, c.cache.CacheKey(cache.TypeChart, chartID(symbol)))
	if ok && len(points) > 0 {
		if len(points) > SparklinePoints {
			points = points[len(points)-SparklinePoints:]
		}
		out := make([]float64, len(points))
		for i, p := range points {
			out[i] = p.Price
		}
		return out, false
	}

	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return SynthesizeSparkline(q.High, q.Low, q.Price, c.rng), true
}
