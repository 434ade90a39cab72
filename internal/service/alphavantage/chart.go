package alphavantage

import (
	"context"
	"fmt"
	"sort"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	"FinWatch/pkg/util"
)

const chartDays = 30

func chartID(symbol string) string { return "stock_" + symbol }

// FetchDailyChart returns up to the last 30 daily closes, oldest first.
func (c *Client) FetchDailyChart(ctx context.Context, symbol string) ([]models.ChartDataPoint, error) {
	symbol = models.WatchlistItem{Ticker: symbol}.Symbol()
	return cached(ctx, c, cache.TypeChart, chartID(symbol), func(ctx context.Context) ([]models.ChartDataPoint, error) {
		var resp dailySeriesResponse
		p := params("TIME_SERIES_DAILY", "symbol", symbol, "outputsize", "compact")
		if err := c.api.Get(ctx, p, &resp); err != nil {
			return nil, fmt.Errorf("daily chart %s: %w", symbol, err)
		}

		points := make([]models.ChartDataPoint, 0, len(resp.Series))
		for date, bar := range resp.Series {
			t, ok := util.ParseTime(date)
			if !ok {
				continue
			}
			points = append(points, models.ChartDataPoint{Time: t.UnixMilli(), Price: util.ParseNumber(bar.Close)})
		}
		if len(points) == 0 {
			return nil, noData("daily chart " + symbol)
		}
		return lastN(points, chartDays), nil
	})
}

// lastN sorts points ascending by time and keeps the newest n.
func lastN(points []models.ChartDataPoint, n int) []models.ChartDataPoint {
	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	if len(points) > n {
		points = points[len(points)-n:]
	}
	return points
}
