package keyrotation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FinWatch/internal/domain/models"
	pkgcache "FinWatch/pkg/cache"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T, keys []string, limits Limits) (*Manager, *pkgcache.MemoryStore, *clock) {
	t.Helper()
	c := &clock{t: time.UnixMilli(1_700_000_000_000)}
	store := pkgcache.NewMemoryStore()
	m := NewManager(context.Background(), store, keys, WithLimits(limits), WithClock(c.now))
	return m, store, c
}

func TestGetAvailableAPIKeyEmptyPool(t *testing.T) {
	m, _, _ := newManager(t, nil, DefaultLimits)
	_, ok := m.GetAvailableAPIKey(context.Background())
	require.False(t, ok)
}

func TestMinuteLimitRotatesToNextKey(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, []string{"k1", "k2"}, Limits{PerMinute: 2, PerDay: 10})

	for i := 0; i < 2; i++ {
		sel, ok := m.GetAvailableAPIKey(ctx)
		require.True(t, ok)
		require.Equal(t, "k1", sel.Key)
		m.RecordUsage(ctx, sel.Key)
	}

	sel, ok := m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
	require.Equal(t, "k2", sel.Key)
	require.Equal(t, 1, sel.Index)
}

func TestMinuteWindowSlides(t *testing.T) {
	ctx := context.Background()
	m, _, c := newManager(t, []string{"k1"}, Limits{PerMinute: 1, PerDay: 10})

	m.RecordUsage(ctx, "k1")
	_, ok := m.GetAvailableAPIKey(ctx)
	require.False(t, ok)

	c.advance(61 * time.Second)
	sel, ok := m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
	require.Equal(t, "k1", sel.Key)
}

func TestDayLimitEndsInRateLimit(t *testing.T) {
	ctx := context.Background()
	m, _, c := newManager(t, []string{"k1"}, Limits{PerMinute: 100, PerDay: 3})

	for i := 0; i < 3; i++ {
		m.RecordUsage(ctx, "k1")
		c.advance(time.Minute)
	}
	_, ok := m.GetAvailableAPIKey(ctx)
	require.False(t, ok)

	c.advance(24 * time.Hour)
	_, ok = m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
}

func TestMarkExhaustedSkipsKeyAndAdvancesIndex(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, []string{"k1", "k2", "k3"}, DefaultLimits)

	sel, ok := m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
	require.Equal(t, "k1", sel.Key)

	m.MarkExhausted(ctx, "k1")
	sel, ok = m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
	require.Equal(t, "k2", sel.Key)

	m.MarkExhausted(ctx, "k3")
	m.MarkExhausted(ctx, "k2")
	_, ok = m.GetAvailableAPIKey(ctx)
	require.False(t, ok)

	rem := m.RemainingRequests(ctx)
	require.Equal(t, 0, rem.Day)
	require.Equal(t, 0, rem.AvailableKeys)
}

func TestWindowsNeverExceedLimits(t *testing.T) {
	ctx := context.Background()
	m, _, c := newManager(t, []string{"a", "b"}, Limits{PerMinute: 3, PerDay: 5})

	for i := 0; i < 50; i++ {
		sel, ok := m.GetAvailableAPIKey(ctx)
		if ok {
			m.RecordUsage(ctx, sel.Key)
		}
		c.advance(7 * time.Second)

		for _, kr := range m.RemainingRequests(ctx).Keys {
			require.GreaterOrEqual(t, kr.Minute, 0)
			require.GreaterOrEqual(t, kr.Day, 0)
		}
	}
}

func TestStatePersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	m, store, c := newManager(t, []string{"k1", "k2"}, Limits{PerMinute: 1, PerDay: 10})

	m.RecordUsage(ctx, "k1")
	sel, ok := m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
	require.Equal(t, "k2", sel.Key)
	require.True(t, m.AddAPIKey(ctx, "k3"))

	raw, err := store.GetItem(ctx, DefaultStateKey)
	require.NoError(t, err)
	var st models.APIKeyState
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	require.Equal(t, 1, st.KeyIndex)
	require.Len(t, st.KeyUsage["k1"].MinuteRequests, 1)
	require.Equal(t, []string{"k3"}, st.ExtraKeys)

	restored := NewManager(ctx, store, []string{"k1", "k2"}, WithLimits(Limits{PerMinute: 1, PerDay: 10}), WithClock(c.now))
	require.Equal(t, 3, restored.Len())
	rem := restored.RemainingRequests(ctx)
	require.Equal(t, 0, rem.Keys[0].Minute)
	require.Equal(t, 9, rem.Keys[0].Day)
}

func TestCorruptStateStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := pkgcache.NewMemoryStore()
	require.NoError(t, store.SetItem(ctx, DefaultStateKey, "not json"))

	m := NewManager(ctx, store, []string{"k1"})
	sel, ok := m.GetAvailableAPIKey(ctx)
	require.True(t, ok)
	require.Equal(t, "k1", sel.Key)
}

func TestAddAPIKeyRejectsEmptyAndDuplicates(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, []string{"k1"}, DefaultLimits)

	require.False(t, m.AddAPIKey(ctx, ""))
	require.False(t, m.AddAPIKey(ctx, "  "))
	require.False(t, m.AddAPIKey(ctx, "k1"))
	require.True(t, m.AddAPIKey(ctx, "k2"))
	require.Equal(t, 2, m.Len())

	rem := m.RemainingRequests(ctx)
	require.Equal(t, 2, rem.TotalKeys)
	require.Equal(t, 10, rem.Minute)
	require.Equal(t, 50, rem.Day)
	require.Equal(t, "****", rem.Keys[1].Key)
}

func TestConcurrentUseKeepsCountsExact(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, []string{"k1"}, Limits{PerMinute: 1000, PerDay: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordUsage(ctx, "k1")
		}()
	}
	wg.Wait()

	rem := m.RemainingRequests(ctx)
	require.Equal(t, 950, rem.Minute)
}
