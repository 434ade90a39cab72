package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/fetch"
)

var fastRetry = fetch.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func getter(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestFetchWithRetrySucceedsAfter5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := fetch.FetchWithRetry(context.Background(), srv.Client(), fastRetry, "test", getter(srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchWithRetryGivesUpWithNetworkError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var retries []int
	cfg := fastRetry
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }

	_, err := fetch.FetchWithRetry(context.Background(), srv.Client(), cfg, "test", getter(srv.URL))
	require.ErrorIs(t, err, models.ErrNetwork)
	require.Equal(t, models.KindNetwork, models.KindOf(err))
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, []int{1, 2}, retries)
}

func TestFetchWithRetryDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	_, err := fetch.FetchWithRetry(context.Background(), srv.Client(), fastRetry, "test", getter(srv.URL))
	require.ErrorIs(t, err, models.ErrAPI)
	require.Contains(t, err.Error(), "HTTP 404")
	require.Equal(t, int32(1), calls.Load())
}

func TestFetchWithRetryAbortsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := fetch.RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	_, err := fetch.FetchWithRetry(ctx, srv.Client(), cfg, "test", getter(srv.URL))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchWithRetryBuildErrorIsPermanent(t *testing.T) {
	var built int
	_, err := fetch.FetchWithRetry(context.Background(), http.DefaultClient, fastRetry, "test",
		func(context.Context) (*http.Request, error) {
			built++
			return nil, errors.New("bad url")
		})
	require.ErrorIs(t, err, models.ErrAPI)
	require.Equal(t, 1, built)
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := fetch.DefaultRetry
	require.Equal(t, time.Second, cfg.Backoff(0))
	require.Equal(t, 2*time.Second, cfg.Backoff(1))
	require.Equal(t, 8*time.Second, cfg.Backoff(3))
	require.Equal(t, 10*time.Second, cfg.Backoff(4))
	require.Equal(t, 10*time.Second, cfg.Backoff(20))
}
