package usecase

import (
	"context"
	"sync"

	"FinWatch/internal/domain/models"
)

type fakeQuotes struct {
	mu     sync.Mutex
	assets map[string]models.FinancialAsset
	errs   map[string]error
	asked  [][]models.WatchlistItem
}

func (f *fakeQuotes) fetch(items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, items)
	assets := map[string]models.FinancialAsset{}
	errs := map[string]error{}
	for _, it := range items {
		if a, ok := f.assets[it.Key()]; ok {
			assets[it.Key()] = a
		}
		if err, ok := f.errs[it.Key()]; ok {
			errs[it.Key()] = err
		}
	}
	return assets, errs
}

type fakeStocks struct {
	fakeQuotes
	chart    []models.ChartDataPoint
	overview *models.CompanyOverview
	err      error
}

func (f *fakeStocks) FetchStockQuotes(_ context.Context, items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error) {
	return f.fetch(items)
}

func (f *fakeStocks) FetchDailyChart(context.Context, string) ([]models.ChartDataPoint, error) {
	return f.chart, f.err
}

func (f *fakeStocks) SearchSymbol(context.Context, string) ([]models.SymbolMatch, error) {
	return nil, f.err
}

func (f *fakeStocks) FetchCompanyOverview(context.Context, string) (*models.CompanyOverview, error) {
	return f.overview, f.err
}

func (f *fakeStocks) FetchTopMovers(context.Context) (*models.TopMovers, error) {
	return nil, f.err
}

func (f *fakeStocks) FetchNewsForTicker(context.Context, string, models.AssetType) ([]models.NewsItem, error) {
	return nil, f.err
}

func (f *fakeStocks) FetchRSI(context.Context, string) (*models.RSIResult, error) {
	return nil, f.err
}

func (f *fakeStocks) FetchMACD(context.Context, string) (*models.MACDResult, error) {
	return nil, f.err
}

func (f *fakeStocks) FetchBollingerBands(_ context.Context, symbol string, price float64) (*models.BollingerResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.BollingerResult{Symbol: symbol, Price: price, Position: models.BandWithin}, nil
}

type fakeCrypto struct {
	fakeQuotes
	chart []models.ChartDataPoint
	err   error
}

func (f *fakeCrypto) FetchCryptoQuotes(_ context.Context, items []models.WatchlistItem) (map[string]models.FinancialAsset, map[string]error) {
	return f.fetch(items)
}

func (f *fakeCrypto) FetchDailyChart(context.Context, string) ([]models.ChartDataPoint, error) {
	return f.chart, f.err
}

type recordingSink struct {
	mu  sync.Mutex
	got []*models.WatchlistResult
	err error
}

func (s *recordingSink) Process(_ context.Context, r *models.WatchlistResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r)
	return s.err
}
