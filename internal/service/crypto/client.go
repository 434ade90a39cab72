// Package crypto adapts the crypto quote provider. It has no key rotation;
// requests are paced by the provider's own token bucket.
package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
	"FinWatch/internal/service/cache"
	"FinWatch/internal/service/fetch"
	xhttp "FinWatch/pkg/http"
	applogger "FinWatch/pkg/logger"
)

const (
	providerName = "crypto"
	statusOK     = "success"
	maxInFlight  = 8
)

type Waiter interface {
	Wait(ctx context.Context) error
}

type Client struct {
	doer        fetch.Doer
	baseURL     string
	token       string
	quotePath   string
	historyPath string
	retry       fetch.RetryConfig
	cache       *cache.Store
	scheduler   Waiter

	rngMu sync.Mutex
	rng   *rand.Rand

	l       *applogger.Logger
	metrics repository.Metrics
}

type Option func(*Client)

// WithPaths overrides the quote and history endpoint paths.
func WithPaths(quote, history string) Option {
	return func(c *Client) {
		if quote != "" {
			c.quotePath = quote
		}
		if history != "" {
			c.historyPath = history
		}
	}
}

func WithRetry(cfg fetch.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithRand sets the jitter source of synthesized sparklines.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) { c.rng = r }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(baseURL, token string, doer fetch.Doer, store *cache.Store, scheduler Waiter, opts ...Option) *Client {
	now := uint64(time.Now().UnixNano())
	c := &Client{
		doer:        doer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		quotePath:   "/getData",
		historyPath: "/getHistory",
		retry:       fetch.DefaultRetry,
		cache:       store,
		scheduler:   scheduler,
		rng:         rand.New(rand.NewPCG(now, now>>1)),
		l:           applogger.Nop(),
		metrics:     repository.NopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get paces, sends and decodes one provider request.
func (c *Client) get(ctx context.Context, op, path string, query map[string][]string, dest any) error {
	if err := c.scheduler.Wait(ctx); err != nil {
		return models.NewFetchError(models.KindNetwork, op, err)
	}
	query["token"] = []string{c.token}

	start := time.Now()
	resp, err := fetch.FetchWithRetry(ctx, c.doer, c.retry, op, func(ctx context.Context) (*http.Request, error) {
		return xhttp.NewRequest(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.baseURL + path,
			QueryParams: query,
		})
	})
	c.metrics.RecordLatency(op, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordProviderRequest(providerName, "error")
		c.metrics.RecordError(string(models.KindOf(err)))
		return err
	}

	body, err := fetch.ReadBody(resp)
	if err != nil {
		c.metrics.RecordProviderRequest(providerName, "error")
		return models.NewFetchError(models.KindNetwork, op, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.metrics.RecordProviderRequest(providerName, "error")
		return models.NewFetchError(models.KindAPI, op, fmt.Errorf("decode: %w", err))
	}
	c.metrics.RecordProviderRequest(providerName, "ok")
	return nil
}

func symbolOf(ticker string) string {
	return models.WatchlistItem{Ticker: ticker}.Symbol()
}

func noData(op string) error {
	return models.NewFetchError(models.KindNoData, op, models.ErrNoData)
}
