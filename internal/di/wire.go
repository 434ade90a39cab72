//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinWatch/pkg/config"
	"FinWatch/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Storage
		ProvideKVStore,
		ProvideCacheStore,
		ProvideKeyManager,
		ProvideLimiter,

		// Providers
		ProvideStockClient,
		ProvideCryptoClient,

		// Use cases
		ProvideSnapshotProcessor,
		ProvideWatchlistAggregator,
		ProvideMarket,

		// HTTP
		ProvideMarketHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
