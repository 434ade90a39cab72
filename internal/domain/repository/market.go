package repository

import (
	"context"

	"FinWatch/internal/domain/models"
)

// StockProvider serves stock quotes and reference data.
type StockProvider interface {
	FetchStockQuotes(ctx context.Context, items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error)
	FetchDailyChart(ctx context.Context, symbol string) ([]models.ChartDataPoint, error)
	SearchSymbol(ctx context.Context, query string) ([]models.SymbolMatch, error)
	FetchCompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error)
	FetchTopMovers(ctx context.Context) (*models.TopMovers, error)
	FetchNewsForTicker(ctx context.Context, ticker string, assetType models.AssetType) ([]models.NewsItem, error)
	FetchRSI(ctx context.Context, symbol string) (*models.RSIResult, error)
	FetchMACD(ctx context.Context, symbol string) (*models.MACDResult, error)
	FetchBollingerBands(ctx context.Context, symbol string, price float64) (*models.BollingerResult, error)
}

// CryptoProvider serves crypto quotes and charts.
type CryptoProvider interface {
	FetchCryptoQuotes(ctx context.Context, items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error)
	FetchDailyChart(ctx context.Context, symbol string) ([]models.ChartDataPoint, error)
}

// KeyManager owns the stock provider's API key pool.
type KeyManager interface {
	GetAvailableAPIKey(ctx context.Context) (models.KeySelection, bool)
	RecordUsage(ctx context.Context, key string)
	MarkExhausted(ctx context.Context, key string)
	RemainingRequests(ctx context.Context) models.RemainingRequests
	AddAPIKey(ctx context.Context, key string) bool
}

//go:generate mockgen -package=usecase -destination=../../usecase/mock_snapshot_test.go -source=market.go SnapshotPublisher,SnapshotStorage

// SnapshotPublisher streams aggregated watchlists.
type SnapshotPublisher interface {
	Publish(ctx context.Context, r *models.WatchlistResult) error
	Close() error
}

// SnapshotStorage persists aggregated watchlists.
type SnapshotStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, r *models.WatchlistResult) error
	Health(ctx context.Context) error
	Close() error
}
