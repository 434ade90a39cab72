package alphavantage

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	"FinWatch/pkg/util"
)

// newsTopic maps a watchlist ticker to the provider's news ticker filter.
func newsTopic(ticker string, assetType models.AssetType) string {
	symbol := models.WatchlistItem{Ticker: ticker}.Symbol()
	if assetType == models.AssetCrypto {
		return "CRYPTO:" + symbol
	}
	return symbol
}

// FetchNewsForTicker returns the newest articles mentioning ticker.
func (c *Client) FetchNewsForTicker(ctx context.Context, ticker string, assetType models.AssetType) ([]models.NewsItem, error) {
	topic := newsTopic(ticker, assetType)
	return cached(ctx, c, cache.TypeNews, string(assetType)+":"+topic, func(ctx context.Context) ([]models.NewsItem, error) {
		var resp newsResponse
		p := params("NEWS_SENTIMENT", "tickers", topic, "sort", "LATEST", "limit", strconv.Itoa(max(c.newsLimit, 50)))
		if err := c.api.Get(ctx, p, &resp); err != nil {
			return nil, fmt.Errorf("news %s: %w", topic, err)
		}

		items := make([]models.NewsItem, 0, len(resp.Feed))
		for _, f := range resp.Feed {
			if f.Title == "" || f.URL == "" {
				continue
			}
			published, _ := util.ParseTime(f.TimePublished)
			items = append(items, models.NewsItem{
				Title:          f.Title,
				URL:            f.URL,
				Summary:        f.Summary,
				Source:         f.Source,
				BannerImage:    f.BannerImage,
				PublishedAt:    published,
				SentimentLabel: f.OverallSentimentLabel,
				SentimentScore: f.OverallSentimentScore,
			})
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].PublishedAt.After(items[j].PublishedAt) })
		if len(items) > c.newsLimit {
			items = items[:c.newsLimit]
		}
		return items, nil
	})
}
