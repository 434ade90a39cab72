package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	pkgcache "FinWatch/pkg/cache"
)

// fakeAPI answers by "FUNCTION:SYMBOL" with a canned body or error.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []url.Values
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bodies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeAPI) key(p url.Values) string {
	sym := p.Get("symbol")
	if sym == "" {
		sym = p.Get("keywords") + p.Get("tickers")
	}
	return p.Get("function") + ":" + sym
}

func (f *fakeAPI) Get(_ context.Context, p url.Values, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	k := f.key(p)
	if err, ok := f.errs[k]; ok {
		return err
	}
	body, ok := f.bodies[k]
	if !ok {
		body = "{}"
	}
	return json.Unmarshal([]byte(body), dest)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingWaiter struct{ n atomic.Int32 }

func (w *countingWaiter) Wait(ctx context.Context) error {
	w.n.Add(1)
	return ctx.Err()
}

func newTestClient(t *testing.T) (*Client, *fakeAPI, *countingWaiter) {
	t.Helper()
	api := newFakeAPI()
	w := &countingWaiter{}
	store := cache.NewStore(pkgcache.NewMemoryStore())
	return NewClient(api, store, w), api, w
}

func quoteBody(symbol, price, change string) string {
	return fmt.Sprintf(`{"Global Quote":{"01. symbol":%q,"05. price":%q,"10. change percent":%q}}`, symbol, price, change)
}

func TestFetchStockQuoteParsesAndCaches(t *testing.T) {
	c, api, w := newTestClient(t)
	api.bodies["GLOBAL_QUOTE:AAPL"] = quoteBody("AAPL", "189.9100", "1.2345%")

	item := models.WatchlistItem{Ticker: "aapl", Type: models.AssetStock}
	asset, err := c.FetchStockQuote(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, "aapl", asset.Ticker)
	require.Equal(t, models.AssetStock, asset.Type)
	require.InDelta(t, 189.91, asset.Price, 1e-9)
	require.InDelta(t, 1.2345, asset.Change24h, 1e-9)
	require.Empty(t, asset.Sparkline)

	_, err = c.FetchStockQuote(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, 1, api.callCount())
	require.EqualValues(t, 1, w.n.Load())
}

func TestFetchStockQuoteEmptyIsNoData(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.bodies["GLOBAL_QUOTE:ZZZZ"] = `{"Global Quote":{}}`

	_, err := c.FetchStockQuote(context.Background(), models.WatchlistItem{Ticker: "ZZZZ", Type: models.AssetStock})
	require.ErrorIs(t, err, models.ErrNoData)
}

func TestSparklineComesFromCachedChart(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.bodies["TIME_SERIES_DAILY:MSFT"] = `{"Time Series (Daily)":{
		"2024-01-03":{"4. close":"12.0"},
		"2024-01-02":{"4. close":"11.0"},
		"2024-01-04":{"4. close":"13.0"}}}`
	api.bodies["GLOBAL_QUOTE:MSFT"] = quoteBody("MSFT", "13.5", "0.5%")

	points, err := c.FetchDailyChart(context.Background(), "msft")
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Less(t, points[0].Time, points[2].Time)

	asset, err := c.FetchStockQuote(context.Background(), models.WatchlistItem{Ticker: "MSFT", Type: models.AssetStock})
	require.NoError(t, err)
	require.Equal(t, []float64{11, 12, 13}, asset.Sparkline)
}

func TestFetchDailyChartKeepsLast30Ascending(t *testing.T) {
	c, api, _ := newTestClient(t)
	series := map[string]map[string]string{}
	for d := 0; d < 40; d++ {
		day := fmt.Sprintf("2024-%02d-%02d", 1+d/28, 1+d%28)
		series[day] = map[string]string{"4. close": fmt.Sprintf("%d", d)}
	}
	b, _ := json.Marshal(map[string]any{"Time Series (Daily)": series})
	api.bodies["TIME_SERIES_DAILY:IBM"] = string(b)

	points, err := c.FetchDailyChart(context.Background(), "IBM")
	require.NoError(t, err)
	require.Len(t, points, 30)
	require.InDelta(t, 10, points[0].Price, 1e-9)
	require.InDelta(t, 39, points[29].Price, 1e-9)
	for i := 1; i < len(points); i++ {
		require.Less(t, points[i-1].Time, points[i].Time)
	}
}

func TestFetchDailyChartEmptyIsNoData(t *testing.T) {
	c, _, _ := newTestClient(t)
	_, err := c.FetchDailyChart(context.Background(), "NONE")
	require.ErrorIs(t, err, models.ErrNoData)
}

func TestFetchStockQuotesIsolatesFailures(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.bodies["GLOBAL_QUOTE:AAPL"] = quoteBody("AAPL", "10", "1%")
	api.errs["GLOBAL_QUOTE:BAD"] = models.NewFetchError(models.KindAPI, "quote", models.ErrAPI)
	api.bodies["GLOBAL_QUOTE:MSFT"] = quoteBody("MSFT", "20", "-2%")

	items := []models.WatchlistItem{
		{Ticker: "AAPL", Type: models.AssetStock},
		{Ticker: "BAD", Type: models.AssetStock},
		{Ticker: "MSFT", Type: models.AssetStock},
	}
	assets, errs := c.FetchStockQuotes(context.Background(), items)
	require.Len(t, assets, 2)
	require.Len(t, errs, 1)
	require.Equal(t, models.KindAPI, models.KindOf(errs["stock:BAD"]))
	require.InDelta(t, -2, assets["stock:MSFT"].Change24h, 1e-9)
}

func TestFetchStockQuotesStopsCallingAfterRateLimit(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.errs["GLOBAL_QUOTE:AAPL"] = models.NewFetchError(models.KindRateLimit, "quote", models.ErrRateLimit)
	api.bodies["GLOBAL_QUOTE:MSFT"] = quoteBody("MSFT", "20", "1%")
	api.bodies["GLOBAL_QUOTE:IBM"] = quoteBody("IBM", "30", "1%")

	// IBM is already cached and is still served.
	_, err := c.FetchStockQuote(context.Background(), models.WatchlistItem{Ticker: "IBM", Type: models.AssetStock})
	require.NoError(t, err)
	before := api.callCount()

	items := []models.WatchlistItem{
		{Ticker: "AAPL", Type: models.AssetStock},
		{Ticker: "MSFT", Type: models.AssetStock},
		{Ticker: "IBM", Type: models.AssetStock},
	}
	assets, errs := c.FetchStockQuotes(context.Background(), items)
	require.Equal(t, before+1, api.callCount())
	require.ErrorIs(t, errs["stock:AAPL"], models.ErrRateLimit)
	require.ErrorIs(t, errs["stock:MSFT"], models.ErrRateLimit)
	require.Contains(t, assets, "stock:IBM")
}

func TestFetchCompanyOverview(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.bodies["OVERVIEW:IBM"] = `{"Symbol":"IBM","Name":"International Business Machines","MarketCapitalization":"1000","PERatio":"None"}`

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.FetchCompanyOverview(context.Background(), "ibm")
		}()
	}
	wg.Wait()

	ov, err := c.FetchCompanyOverview(context.Background(), "IBM")
	require.NoError(t, err)
	require.Equal(t, "IBM", ov.Symbol)
	require.InDelta(t, 1000, ov.MarketCap, 1e-9)
	require.Zero(t, ov.PERatio)
}

func TestFetchCompanyOverviewUnknownIsNoData(t *testing.T) {
	c, _, _ := newTestClient(t)
	ov, err := c.FetchCompanyOverview(context.Background(), "NOPE")
	require.Nil(t, ov)
	require.ErrorIs(t, err, models.ErrNoData)
}

type slowWaiter struct{ d time.Duration }

func (w slowWaiter) Wait(ctx context.Context) error {
	select {
	case <-time.After(w.d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSharedLoadSurvivesCallerCancellation(t *testing.T) {
	api := newFakeAPI()
	api.bodies["OVERVIEW:AAPL"] = `{"Symbol":"AAPL","Name":"Apple Inc"}`
	c := NewClient(api, cache.NewStore(pkgcache.NewMemoryStore()), slowWaiter{d: 200 * time.Millisecond})

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var (
		wg      sync.WaitGroup
		errA    error
		ov      *models.CompanyOverview
		errB    error
		started = make(chan struct{})
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		close(started)
		_, errA = c.FetchCompanyOverview(short, "AAPL")
	}()
	go func() {
		defer wg.Done()
		<-started
		ov, errB = c.FetchCompanyOverview(context.Background(), "AAPL")
	}()
	wg.Wait()

	require.ErrorIs(t, errA, context.DeadlineExceeded)
	var fe *models.FetchError
	require.ErrorAs(t, errA, &fe)
	require.Equal(t, models.KindNetwork, fe.Kind)

	require.NoError(t, errB)
	require.Equal(t, "AAPL", ov.Symbol)
	require.Equal(t, 1, api.callCount())
}

func TestSharedLoadHonoursLoadTimeout(t *testing.T) {
	api := newFakeAPI()
	c := NewClient(api, cache.NewStore(pkgcache.NewMemoryStore()), slowWaiter{d: time.Second},
		WithLoadTimeout(20*time.Millisecond))

	_, err := c.FetchCompanyOverview(context.Background(), "AAPL")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, api.callCount())
}

func TestFetchStockQuotesJoinsPaddedTickers(t *testing.T) {
	c, api, w := newTestClient(t)
	api.bodies["GLOBAL_QUOTE:AAPL"] = quoteBody("AAPL", "189.9100", "1.2345%")

	items := []models.WatchlistItem{
		{Ticker: " AAPL", Type: models.AssetStock},
		{Ticker: "AAPL", Type: models.AssetStock},
		{Ticker: "aapl ", Type: models.AssetStock},
	}
	assets, errs := c.FetchStockQuotes(context.Background(), items)
	require.Empty(t, errs)
	require.Len(t, assets, 1)
	require.Contains(t, assets, "stock:AAPL")
	require.Equal(t, int32(1), w.n.Load())
}
