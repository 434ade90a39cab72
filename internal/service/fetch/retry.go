package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"FinWatch/internal/domain/models"
)

// Doer sends HTTP requests.
//
//go:generate mockgen -package=fetch_test -destination=mock_doer_test.go -source=retry.go Doer
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error, delay time.Duration)
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Backoff returns the wait after the given zero-based attempt:
// min(BaseDelay * 2^attempt, MaxDelay).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// FetchWithRetry sends the request built by buildReq, retrying transport
// failures and 5xx responses with exponential backoff. A 4xx response is
// permanent and returned as API_ERROR without retrying. When every attempt
// fails the result is NETWORK_ERROR. buildReq runs once per attempt.
func FetchWithRetry(ctx context.Context, doer Doer, cfg RetryConfig, op string, buildReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		req, err := buildReq(ctx)
		if err != nil {
			return nil, models.NewFetchError(models.KindAPI, op, fmt.Errorf("build request: %w", err))
		}

		resp, err := doer.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, models.NewFetchError(models.KindNetwork, op, ctx.Err())
			}
			lastErr = err
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, drain(resp))
		case resp.StatusCode >= 400:
			return nil, models.NewFetchError(models.KindAPI, op, fmt.Errorf("HTTP %d: %s", resp.StatusCode, drain(resp)))
		default:
			return resp, nil
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, models.NewFetchError(models.KindNetwork, op, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, models.NewFetchError(models.KindNetwork, op,
		fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, lastErr))
}

// drain reads a short error snippet and closes the body.
func drain(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return string(body)
}
