// Package alphavantage adapts the stock data provider: quotes, daily
// charts, reference data, news and technical indicators.
package alphavantage

import (
	"context"
	"errors"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
	"FinWatch/internal/service/cache"
	"FinWatch/internal/service/fetch"
	applogger "FinWatch/pkg/logger"
)

const (
	providerName       = "alphavantage"
	defaultLoadTimeout = 90 * time.Second
)

// API performs one key-rotated provider call.
type API interface {
	Get(ctx context.Context, params url.Values, dest any) error
}

// Waiter paces outbound requests.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Client serves stock data. Every uncached request waits on the scheduler
// first, so provider calls are strictly paced at the key pool's rate.
type Client struct {
	api       API
	cache     *cache.Store
	scheduler Waiter
	newsLimit int
	timeout   time.Duration
	group     singleflight.Group
	l         *applogger.Logger
	metrics   repository.Metrics
}

type Option func(*Client)

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLoadTimeout bounds one shared load, scheduler wait included.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithNewsLimit caps the number of news items returned per ticker.
func WithNewsLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.newsLimit = n
		}
	}
}

func NewClient(api API, store *cache.Store, scheduler Waiter, opts ...Option) *Client {
	c := &Client{
		api:       api,
		cache:     store,
		scheduler: scheduler,
		newsLimit: 10,
		timeout:   defaultLoadTimeout,
		l:         applogger.Nop(),
		metrics:   repository.NopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewAPI builds the key-rotated transport for the provider.
func NewAPI(baseURL string, doer fetch.Doer, keys repository.KeyManager, opts ...fetch.ClientOption) *fetch.KeyedClient {
	return fetch.NewKeyedClient(providerName, baseURL, doer, keys, opts...)
}

// cached serves key from the TTL cache or loads it through the scheduler.
// Concurrent loads of the same key share one provider call, which runs
// detached from every caller; a caller whose ctx ends stops waiting
// without failing the others. ErrNoData results are not cached.
func cached[T any](ctx context.Context, c *Client, dataType cache.DataType, id string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	key := c.cache.CacheKey(dataType, id)
	if v, ok := cache.Get[T](ctx, c.cache, key); ok {
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(shared, c.timeout)
		defer cancel()

		if err := c.scheduler.Wait(ctx); err != nil {
			return nil, models.NewFetchError(models.KindNetwork, providerName+" schedule", err)
		}
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		cache.Set(ctx, c.cache, key, out, dataType.TTL())
		return out, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, models.NewFetchError(models.KindNetwork, providerName+" "+string(dataType), ctx.Err())
	}
}

func params(function string, kv ...string) url.Values {
	p := url.Values{"function": {function}}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

func noData(op string) error {
	return models.NewFetchError(models.KindNoData, providerName+" "+op, models.ErrNoData)
}

func isRateLimit(err error) bool {
	return errors.Is(err, models.ErrRateLimit)
}
