package crypto

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
)

const chartDays = 30

func chartID(symbol string) string { return "crypto_" + symbol }

// FetchDailyChart returns up to 30 daily closes, oldest first.
func (c *Client) FetchDailyChart(ctx context.Context, ticker string) ([]models.ChartDataPoint, error) {
	symbol := symbolOf(ticker)
	key := c.cache.CacheKey(cache.TypeChart, chartID(symbol))
	if points, ok := cache.Get[[]models.ChartDataPoint](ctx, c.cache, key); ok {
		return points, nil
	}

	op := providerName + " history " + symbol
	var resp historyResponse
	query := map[string][]string{"symbol": {symbol}, "days": {strconv.Itoa(chartDays)}}
	if err := c.get(ctx, op, c.historyPath, query, &resp); err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	if !successful(resp.Status) {
		return nil, noData(op)
	}

	points := make([]models.ChartDataPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		if !r.TimeClose.ok {
			continue
		}
		points = append(points, models.ChartDataPoint{Time: r.TimeClose.UnixMilli(), Price: r.Close.InexactFloat64()})
	}
	if len(points) == 0 {
		return nil, noData(op)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	if len(points) > chartDays {
		points = points[len(points)-chartDays:]
	}
	cache.Set(ctx, c.cache, key, points, cache.TypeChart.TTL())
	return points, nil
}
