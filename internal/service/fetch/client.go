package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
	xhttp "FinWatch/pkg/http"
	applogger "FinWatch/pkg/logger"
	"FinWatch/pkg/util"
)

const maxBodyBytes = 8 << 20

// KeyedClient calls a key-authenticated provider, rotating keys from a
// KeyManager and failing over once when a key hits its quota.
type KeyedClient struct {
	provider string
	baseURL  string
	keyParam string
	doer     Doer
	keys     repository.KeyManager
	retry    RetryConfig
	metrics  repository.Metrics
	l        *applogger.Logger
}

type ClientOption func(*KeyedClient)

func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *KeyedClient) { c.retry = cfg }
}

func WithMetrics(m repository.Metrics) ClientOption {
	return func(c *KeyedClient) { c.metrics = m }
}

func WithLogger(l *applogger.Logger) ClientOption {
	return func(c *KeyedClient) { c.l = l }
}

// WithKeyParam sets the query parameter carrying the key. Default "apikey".
func WithKeyParam(name string) ClientOption {
	return func(c *KeyedClient) { c.keyParam = name }
}

func NewKeyedClient(provider, baseURL string, doer Doer, keys repository.KeyManager, opts ...ClientOption) *KeyedClient {
	c := &KeyedClient{
		provider: provider,
		baseURL:  baseURL,
		keyParam: "apikey",
		doer:     doer,
		keys:     keys,
		retry:    DefaultRetry,
		metrics:  repository.NopMetrics{},
		l:        applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
			c.l.Warn("provider request retry",
				applogger.String("provider", c.provider),
				applogger.Int("attempt", attempt),
				applogger.Duration("delay_ms", delay),
				applogger.Error(err),
			)
		}
	}
	return c
}

// Get performs one logical provider call and decodes the body into dest.
// Usage is recorded against whichever key produced the data.
func (c *KeyedClient) Get(ctx context.Context, params url.Values, dest any) error {
	op := c.provider + " " + params.Get("function")

	sel, ok := c.keys.GetAvailableAPIKey(ctx)
	if !ok {
		c.metrics.RecordError(string(models.KindRateLimit))
		return models.NewFetchError(models.KindRateLimit, op, models.ErrRateLimit)
	}

	body, cls, err := c.call(ctx, op, params, sel.Key)
	if err != nil {
		return err
	}

	if cls.Outcome == OutcomeQuotaExceeded {
		c.keys.MarkExhausted(ctx, sel.Key)

		next, ok := c.keys.GetAvailableAPIKey(ctx)
		if !ok {
			c.metrics.RecordError(string(models.KindRateLimit))
			return models.NewFetchError(models.KindRateLimit, op, models.ErrRateLimit)
		}
		body, cls, err = c.call(ctx, op, params, next.Key)
		if err != nil {
			return err
		}
		if cls.Outcome == OutcomeQuotaExceeded {
			c.keys.MarkExhausted(ctx, next.Key)
			c.metrics.RecordError(string(models.KindRateLimit))
			return models.NewFetchError(models.KindRateLimit, op, fmt.Errorf("%w: %s", models.ErrRateLimit, cls.Message))
		}
		sel = next
	}

	if cls.Outcome == OutcomeError {
		c.metrics.RecordError(string(models.KindAPI))
		return models.NewFetchError(models.KindAPI, op, errors.New(cls.Message))
	}

	c.keys.RecordUsage(ctx, sel.Key)

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.metrics.RecordError(string(models.KindAPI))
		return models.NewFetchError(models.KindAPI, op, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func (c *KeyedClient) call(ctx context.Context, op string, params url.Values, key string) ([]byte, Classification, error) {
	query := make(map[string][]string, len(params)+1)
	for k, v := range params {
		query[k] = v
	}
	query[c.keyParam] = []string{key}

	start := time.Now()
	resp, err := FetchWithRetry(ctx, c.doer, c.retry, op, func(ctx context.Context) (*http.Request, error) {
		return xhttp.NewRequest(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.baseURL,
			QueryParams: query,
		})
	})
	c.metrics.RecordLatency(op, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordProviderRequest(c.provider, resultLabel(err))
		c.metrics.RecordError(string(models.KindOf(err)))
		c.l.Error("provider request failed",
			applogger.String("op", op),
			applogger.String("key", util.MaskKey(key)),
			applogger.Error(err),
		)
		return nil, Classification{}, err
	}

	body, err := ReadBody(resp)
	if err != nil {
		c.metrics.RecordProviderRequest(c.provider, "network_error")
		return nil, Classification{}, models.NewFetchError(models.KindNetwork, op, err)
	}

	cls := Classify(body)
	c.metrics.RecordProviderRequest(c.provider, cls.Outcome.String())
	if cls.Outcome == OutcomeQuotaExceeded {
		c.l.Warn("provider quota exceeded",
			applogger.String("op", op),
			applogger.String("key", util.MaskKey(key)),
			applogger.String("message", cls.Message),
		)
	}
	return body, cls, nil
}

// GetJSON is Get with a typed result.
func GetJSON[T any](ctx context.Context, c *KeyedClient, params url.Values) (T, error) {
	var out T
	err := c.Get(ctx, params, &out)
	return out, err
}

// ReadBody reads and closes a response body, bounded to a sane size.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func resultLabel(err error) string {
	if models.KindOf(err) == models.KindAPI {
		return "api_error"
	}
	return "network_error"
}
