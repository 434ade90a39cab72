package usecase

import (
	"context"
	"fmt"
	"strings"

	"FinWatch/internal/domain/models"
	drepo "FinWatch/internal/domain/repository"
	applogger "FinWatch/pkg/logger"
)

// Market is the public surface of the data layer. Missing data and
// provider-side errors come back as empty results; RATE_LIMIT and
// NETWORK_ERROR are returned so callers can tell the user to retry.
type Market struct {
	watchlist *WatchlistAggregator
	stocks    drepo.StockProvider
	crypto    drepo.CryptoProvider
	keys      drepo.KeyManager
	l         *applogger.Logger
}

func NewMarket(w *WatchlistAggregator, stocks drepo.StockProvider, crypto drepo.CryptoProvider, keys drepo.KeyManager, l *applogger.Logger) *Market {
	if l == nil {
		l = applogger.Nop()
	}
	return &Market{watchlist: w, stocks: stocks, crypto: crypto, keys: keys, l: l}
}

func (m *Market) FetchWatchlistData(ctx context.Context, items []models.WatchlistItem) *models.WatchlistResult {
	return m.watchlist.FetchWatchlistData(ctx, items)
}

// FetchAssetDailyChart dispatches to the provider serving item.Type.
func (m *Market) FetchAssetDailyChart(ctx context.Context, item models.WatchlistItem) ([]models.ChartDataPoint, error) {
	var (
		points []models.ChartDataPoint
		err    error
	)
	switch item.Type {
	case models.AssetStock:
		points, err = m.stocks.FetchDailyChart(ctx, item.Ticker)
	case models.AssetCrypto:
		points, err = m.crypto.FetchDailyChart(ctx, item.Ticker)
	default:
		return nil, models.NewFetchError(models.KindAPI, "chart", fmt.Errorf("unsupported asset type %q", item.Type))
	}
	points, err = soften(m.l, "chart "+item.Key(), points, err)
	return orEmpty(points, err)
}

func (m *Market) SearchSymbol(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []models.SymbolMatch{}, nil
	}
	matches, err := m.stocks.SearchSymbol(ctx, query)
	matches, err = soften(m.l, "search", matches, err)
	return orEmpty(matches, err)
}

// FetchCompanyOverview returns nil when the provider has no profile.
func (m *Market) FetchCompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	ov, err := m.stocks.FetchCompanyOverview(ctx, symbol)
	return soften(m.l, "overview "+symbol, ov, err)
}

func (m *Market) FetchTopMovers(ctx context.Context) (*models.TopMovers, error) {
	tm, err := m.stocks.FetchTopMovers(ctx)
	return soften(m.l, "top movers", tm, err)
}

func (m *Market) FetchNewsForTicker(ctx context.Context, ticker string, assetType models.AssetType) ([]models.NewsItem, error) {
	news, err := m.stocks.FetchNewsForTicker(ctx, ticker, assetType)
	news, err = soften(m.l, "news "+ticker, news, err)
	return orEmpty(news, err)
}

func (m *Market) FetchRSI(ctx context.Context, symbol string) (*models.RSIResult, error) {
	r, err := m.stocks.FetchRSI(ctx, symbol)
	return soften(m.l, "rsi "+symbol, r, err)
}

func (m *Market) FetchMACD(ctx context.Context, symbol string) (*models.MACDResult, error) {
	r, err := m.stocks.FetchMACD(ctx, symbol)
	return soften(m.l, "macd "+symbol, r, err)
}

func (m *Market) FetchBollingerBands(ctx context.Context, symbol string, price float64) (*models.BollingerResult, error) {
	r, err := m.stocks.FetchBollingerBands(ctx, symbol, price)
	return soften(m.l, "bbands "+symbol, r, err)
}

func (m *Market) GetRemainingRequests(ctx context.Context) models.RemainingRequests {
	return m.keys.RemainingRequests(ctx)
}

// AddAPIKey adds a key to the rotation; false means empty or duplicate.
func (m *Market) AddAPIKey(ctx context.Context, key string) bool {
	return m.keys.AddAPIKey(ctx, strings.TrimSpace(key))
}

// soften turns NO_DATA and API_ERROR into a zero result.
func soften[T any](l *applogger.Logger, op string, v T, err error) (T, error) {
	if err == nil {
		return v, nil
	}
	var zero T
	switch kind := models.KindOf(err); kind {
	case models.KindNoData, models.KindAPI:
		l.Warn("market data unavailable",
			applogger.String("op", op),
			applogger.String("kind", string(kind)),
			applogger.Error(err),
		)
		return zero, nil
	default:
		return zero, err
	}
}

func orEmpty[T any](v []T, err error) ([]T, error) {
	if err == nil && v == nil {
		return []T{}, nil
	}
	return v, err
}
