package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	"FinWatch/pkg/util"
)

const (
	indicatorPoints = 30
	rsiPeriod       = "14"
	bbandsPeriod    = "20"
)

// technicalSeries extracts the "Technical Analysis: ..." block as rows
// sorted ascending by date, keeping the newest indicatorPoints.
func technicalSeries(resp indicatorResponse) ([]string, map[string]map[string]string, error) {
	for name, raw := range resp {
		if !strings.HasPrefix(name, "Technical Analysis") {
			continue
		}
		var rows map[string]map[string]string
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", name, err)
		}
		dates := make([]string, 0, len(rows))
		for d := range rows {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		if len(dates) > indicatorPoints {
			dates = dates[len(dates)-indicatorPoints:]
		}
		return dates, rows, nil
	}
	return nil, nil, nil
}

func (c *Client) indicator(ctx context.Context, function, symbol string, extra ...string) ([]string, map[string]map[string]string, error) {
	kv := append([]string{"symbol", symbol, "interval", "daily", "series_type", "close"}, extra...)
	var resp indicatorResponse
	if err := c.api.Get(ctx, params(function, kv...), &resp); err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", strings.ToLower(function), symbol, err)
	}
	dates, rows, err := technicalSeries(resp)
	if err != nil {
		return nil, nil, models.NewFetchError(models.KindAPI, providerName+" "+function, err)
	}
	if len(dates) == 0 {
		return nil, nil, noData(strings.ToLower(function) + " " + symbol)
	}
	return dates, rows, nil
}

// FetchRSI returns the 14-period daily RSI series and its signal.
func (c *Client) FetchRSI(ctx context.Context, symbol string) (*models.RSIResult, error) {
	symbol = models.WatchlistItem{Ticker: symbol}.Symbol()
	res, err := cached(ctx, c, cache.TypeIndicator, "rsi:"+symbol, func(ctx context.Context) (models.RSIResult, error) {
		dates, rows, err := c.indicator(ctx, "RSI", symbol, "time_period", rsiPeriod)
		if err != nil {
			return models.RSIResult{}, err
		}
		series := make([]models.IndicatorPoint, len(dates))
		for i, d := range dates {
			series[i] = models.IndicatorPoint{Date: d, Value: util.ParseNumber(rows[d]["RSI"])}
		}
		current := series[len(series)-1].Value
		return models.RSIResult{Symbol: symbol, Series: series, Current: current, Signal: ClassifyRSI(current)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchMACD returns the daily MACD series with default periods.
func (c *Client) FetchMACD(ctx context.Context, symbol string) (*models.MACDResult, error) {
	symbol = models.WatchlistItem{Ticker: symbol}.Symbol()
	res, err := cached(ctx, c, cache.TypeIndicator, "macd:"+symbol, func(ctx context.Context) (models.MACDResult, error) {
		dates, rows, err := c.indicator(ctx, "MACD", symbol)
		if err != nil {
			return models.MACDResult{}, err
		}
		series := make([]models.MACDPoint, len(dates))
		for i, d := range dates {
			series[i] = models.MACDPoint{
				Date:      d,
				MACD:      util.ParseNumber(rows[d]["MACD"]),
				Signal:    util.ParseNumber(rows[d]["MACD_Signal"]),
				Histogram: util.ParseNumber(rows[d]["MACD_Hist"]),
			}
		}
		return models.MACDResult{Symbol: symbol, Series: series, Signal: ClassifyMACD(series)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchBollingerBands returns the 20-period bands. price positions the
// latest band; price <= 0 is reported as within.
func (c *Client) FetchBollingerBands(ctx context.Context, symbol string, price float64) (*models.BollingerResult, error) {
	symbol = models.WatchlistItem{Ticker: symbol}.Symbol()
	series, err := cached(ctx, c, cache.TypeIndicator, "bbands:"+symbol, func(ctx context.Context) ([]models.BollingerPoint, error) {
		dates, rows, err := c.indicator(ctx, "BBANDS", symbol, "time_period", bbandsPeriod)
		if err != nil {
			return nil, err
		}
		out := make([]models.BollingerPoint, len(dates))
		for i, d := range dates {
			out[i] = models.BollingerPoint{
				Date:   d,
				Upper:  util.ParseNumber(rows[d]["Real Upper Band"]),
				Middle: util.ParseNumber(rows[d]["Real Middle Band"]),
				Lower:  util.ParseNumber(rows[d]["Real Lower Band"]),
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.BollingerResult{
		Symbol:   symbol,
		Series:   series,
		Price:    price,
		Position: ClassifyBollinger(price, series[len(series)-1]),
	}, nil
}

func ClassifyRSI(v float64) string {
	switch {
	case v > 70:
		return models.RSIOverbought
	case v < 30:
		return models.RSIOversold
	default:
		return models.RSINeutral
	}
}

// ClassifyMACD looks only at the sign change between the last two histogram points.
func ClassifyMACD(series []models.MACDPoint) string {
	if len(series) < 2 {
		return models.MACDNeutral
	}
	prev, last := series[len(series)-2].Histogram, series[len(series)-1].Histogram
	switch {
	case prev < 0 && last > 0:
		return models.MACDBullish
	case prev > 0 && last < 0:
		return models.MACDBearish
	default:
		return models.MACDNeutral
	}
}

func ClassifyBollinger(price float64, latest models.BollingerPoint) string {
	switch {
	case price <= 0:
		return models.BandWithin
	case price > latest.Upper:
		return models.BandAboveUpper
	case price < latest.Lower:
		return models.BandBelowLower
	default:
		return models.BandWithin
	}
}
