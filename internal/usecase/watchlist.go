package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"FinWatch/internal/domain/models"
	drepo "FinWatch/internal/domain/repository"
	applogger "FinWatch/pkg/logger"
)

const snapshotTimeout = 5 * time.Second

// SnapshotSink receives every assembled watchlist.
type SnapshotSink interface {
	Process(ctx context.Context, r *models.WatchlistResult) error
}

// WatchlistAggregator fans a mixed watchlist out to the stock and crypto
// providers and joins the answers back in input order.
type WatchlistAggregator struct {
	stocks  drepo.StockProvider
	crypto  drepo.CryptoProvider
	sink    SnapshotSink
	now     func() time.Time
	newID   func() string
	l       *applogger.Logger
	metrics drepo.Metrics
}

type AggregatorOption func(*WatchlistAggregator)

func WithSink(s SnapshotSink) AggregatorOption {
	return func(a *WatchlistAggregator) { a.sink = s }
}

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *WatchlistAggregator) { a.now = now }
}

func WithIDGenerator(f func() string) AggregatorOption {
	return func(a *WatchlistAggregator) { a.newID = f }
}

func WithAggregatorLogger(l *applogger.Logger) AggregatorOption {
	return func(a *WatchlistAggregator) { a.l = l }
}

func WithAggregatorMetrics(m drepo.Metrics) AggregatorOption {
	return func(a *WatchlistAggregator) { a.metrics = m }
}

func NewWatchlistAggregator(stocks drepo.StockProvider, crypto drepo.CryptoProvider, opts ...AggregatorOption) *WatchlistAggregator {
	a := &WatchlistAggregator{
		stocks:  stocks,
		crypto:  crypto,
		now:     time.Now,
		newID:   uuid.NewString,
		l:       applogger.Nop(),
		metrics: drepo.NopMetrics{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchWatchlistData never fails as a whole: every ticker that could not be
// fetched is reported as a zeroed asset plus a failure entry.
func (a *WatchlistAggregator) FetchWatchlistData(ctx context.Context, items []models.WatchlistItem) *models.WatchlistResult {
	start := a.now()

	var stockItems, cryptoItems []models.WatchlistItem
	for _, it := range items {
		switch it.Type {
		case models.AssetStock:
			stockItems = append(stockItems, it)
		case models.AssetCrypto:
			cryptoItems = append(cryptoItems, it)
		}
	}

	var (
		stockAssets, cryptoAssets map[string]models.FinancialAsset
		stockErrs, cryptoErrs     map[string]error
	)
	var g errgroup.Group
	if len(stockItems) > 0 {
		g.Go(func() error {
			stockAssets, stockErrs = a.stocks.FetchStockQuotes(ctx, stockItems)
			return nil
		})
	}
	if len(cryptoItems) > 0 {
		g.Go(func() error {
			cryptoAssets, cryptoErrs = a.crypto.FetchCryptoQuotes(ctx, cryptoItems)
			return nil
		})
	}
	_ = g.Wait()

	res := &models.WatchlistResult{
		ID:        a.newID(),
		FetchedAt: a.now().UTC(),
		Assets:    make([]models.FinancialAsset, 0, len(items)),
	}
	for _, it := range items {
		assets, errs := stockAssets, stockErrs
		if it.Type == models.AssetCrypto {
			assets, errs = cryptoAssets, cryptoErrs
		}

		key := it.Key()
		if asset, ok := assets[key]; ok {
			asset.Ticker = it.Ticker
			asset.Type = it.Type
			if asset.Sparkline == nil {
				asset.Sparkline = []float64{}
			}
			res.Assets = append(res.Assets, asset)
			continue
		}

		res.Assets = append(res.Assets, models.ZeroAsset(it))
		f := failureFor(it, errs[key])
		if f.Kind == models.KindRateLimit {
			res.RateLimited = true
		}
		res.Failures = append(res.Failures, f)
	}

	a.metrics.RecordLatency("watchlist", a.now().Sub(start).Seconds())
	a.l.Info("watchlist aggregated",
		applogger.String("id", res.ID),
		applogger.Int("assets", len(res.Assets)),
		applogger.Int("failures", len(res.Failures)),
		applogger.Bool("rate_limited", res.RateLimited),
	)

	a.publish(ctx, res)
	return res
}

func failureFor(it models.WatchlistItem, err error) models.TickerFailure {
	f := models.TickerFailure{Ticker: it.Ticker, Type: it.Type}
	switch {
	case !it.Type.Valid():
		f.Kind, f.Message = models.KindAPI, "unsupported asset type"
	case err == nil:
		f.Kind, f.Message = models.KindNoData, models.ErrNoData.Error()
	default:
		f.Kind, f.Message = models.KindOf(err), err.Error()
	}
	return f
}

// publish is best-effort and survives the caller going away.
func (a *WatchlistAggregator) publish(ctx context.Context, res *models.WatchlistResult) {
	if a.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()
	if err := a.sink.Process(ctx, res); err != nil && !errors.Is(err, context.Canceled) {
		a.l.Error("snapshot sink failed", applogger.String("id", res.ID), applogger.Error(err))
	}
}
