package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgcache "FinWatch/pkg/cache"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type brokenKV struct{ pkgcache.Store }

var errQuota = errors.New("quota exceeded")

func (brokenKV) GetItem(context.Context, string) (string, error) { return "", errQuota }
func (brokenKV) SetItem(context.Context, string, string) error   { return errQuota }
func (brokenKV) RemoveItem(context.Context, string) error        { return errQuota }
func (brokenKV) Keys(context.Context, string) ([]string, error)  { return nil, errQuota }

func newTestStore() (*Store, *pkgcache.MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	kv := pkgcache.NewMemoryStore()
	return NewStore(kv, WithClock(clock.now)), kv, clock
}

func TestCacheKeyIsNamespaced(t *testing.T) {
	s, _, _ := newTestStore()
	require.Equal(t, "finwatch_cache_quote_AAPL", s.CacheKey(TypeQuote, "AAPL"))

	s2 := NewStore(pkgcache.NewMemoryStore(), WithNamespace("x_"))
	require.Equal(t, "x_chart_BTC", s2.CacheKey(TypeChart, "BTC"))
}

func TestGetReturnsValueUntilExpiry(t *testing.T) {
	ctx := context.Background()
	s, kv, clock := newTestStore()
	key := s.CacheKey(TypeQuote, "AAPL")

	Set(ctx, s, key, []float64{1, 2, 3}, TTLQuote)

	got, ok := Get[[]float64](ctx, s, key)
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, got)

	// exactly at expiresAt is still fresh
	clock.advance(TTLQuote)
	_, ok = Get[[]float64](ctx, s, key)
	require.True(t, ok)

	clock.advance(time.Millisecond)
	_, ok = Get[[]float64](ctx, s, key)
	require.False(t, ok)

	// lazily evicted
	_, err := kv.GetItem(ctx, key)
	require.ErrorIs(t, err, pkgcache.ErrCacheMiss)
}

func TestGetTreatsCorruptEntryAsMiss(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore()
	key := s.CacheKey(TypeNews, "AAPL")
	require.NoError(t, kv.SetItem(ctx, key, "{not json"))

	_, ok := Get[string](ctx, s, key)
	require.False(t, ok)
	require.Equal(t, 0, kv.Len())
}

func TestStoreSwallowsBackendErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(brokenKV{})
	key := s.CacheKey(TypeQuote, "AAPL")

	Set(ctx, s, key, "data", TTLQuote)
	_, ok := Get[string](ctx, s, key)
	require.False(t, ok)
	require.Equal(t, 0, s.ClearExpired(ctx))
}

func TestClearExpiredSweepsNamespaceOnly(t *testing.T) {
	ctx := context.Background()
	s, kv, clock := newTestStore()

	Set(ctx, s, s.CacheKey(TypeQuote, "AAPL"), 1, TTLQuote)
	Set(ctx, s, s.CacheKey(TypeCompany, "AAPL"), 2, TTLCompany)
	require.NoError(t, kv.SetItem(ctx, s.CacheKey(TypeChart, "BROKEN"), "garbage"))
	require.NoError(t, kv.SetItem(ctx, "finwatch_api_key_state", `{"keyIndex":0}`))

	clock.advance(time.Hour)
	removed := s.ClearExpired(ctx)
	require.Equal(t, 2, removed)

	_, ok := Get[int](ctx, s, s.CacheKey(TypeCompany, "AAPL"))
	require.True(t, ok)
	_, err := kv.GetItem(ctx, "finwatch_api_key_state")
	require.NoError(t, err)
}

func TestDataTypeTTLPolicy(t *testing.T) {
	cases := map[DataType]time.Duration{
		TypeQuote:     300 * time.Second,
		TypeChart:     1800 * time.Second,
		TypeNews:      900 * time.Second,
		TypeCompany:   86400 * time.Second,
		TypeTopMovers: 600 * time.Second,
	}
	for dt, want := range cases {
		require.Equal(t, want, dt.TTL(), string(dt))
	}
}
