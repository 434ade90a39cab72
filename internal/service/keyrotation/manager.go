// Package keyrotation spreads stock provider requests across a pool of API
// keys, each limited per minute and per day.
package keyrotation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
	pkgcache "FinWatch/pkg/cache"
	applogger "FinWatch/pkg/logger"
	"FinWatch/pkg/util"
)

const (
	minuteWindow = int64(60 * 1000)
	dayWindow    = int64(24 * 60 * 60 * 1000)

	DefaultStateKey = "finwatch_api_key_state"
)

// Limits are per-key request budgets.
type Limits struct {
	PerMinute int
	PerDay    int
}

// DefaultLimits matches the provider's free tier.
var DefaultLimits = Limits{PerMinute: 5, PerDay: 25}

// Manager is the single owner of key rotation state. All methods are safe
// for concurrent use; every mutation is written through to the store.
type Manager struct {
	mu       sync.Mutex
	keys     []string
	state    models.APIKeyState
	limits   Limits
	store    pkgcache.Store
	stateKey string
	now      func() time.Time
	l        *applogger.Logger
	metrics  repository.Metrics
}

type Option func(*Manager)

func WithLimits(l Limits) Option {
	return func(m *Manager) {
		if l.PerMinute > 0 {
			m.limits.PerMinute = l.PerMinute
		}
		if l.PerDay > 0 {
			m.limits.PerDay = l.PerDay
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithStateKey(key string) Option {
	return func(m *Manager) { m.stateKey = key }
}

func WithLogger(l *applogger.Logger) Option {
	return func(m *Manager) { m.l = l }
}

func WithMetrics(metrics repository.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager builds a manager for keys and restores persisted state from
// store. Keys added at runtime in earlier sessions are restored too.
func NewManager(ctx context.Context, store pkgcache.Store, keys []string, opts ...Option) *Manager {
	m := &Manager{
		limits:   DefaultLimits,
		store:    store,
		stateKey: DefaultStateKey,
		now:      time.Now,
		l:        applogger.Nop(),
		metrics:  repository.NopMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, k := range keys {
		m.appendKey(k)
	}
	m.load(ctx)
	return m
}

func (m *Manager) appendKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	for _, k := range m.keys {
		if k == key {
			return false
		}
	}
	m.keys = append(m.keys, key)
	return true
}

func (m *Manager) load(ctx context.Context) {
	m.state = models.APIKeyState{KeyUsage: map[string]*models.KeyUsage{}}

	raw, err := m.store.GetItem(ctx, m.stateKey)
	if err != nil {
		if !errors.Is(err, pkgcache.ErrCacheMiss) {
			m.l.Warn("key state load failed, starting fresh", applogger.Error(err))
		}
		return
	}

	var st models.APIKeyState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		m.l.Warn("key state corrupt, starting fresh", applogger.Error(err))
		return
	}
	if st.KeyUsage == nil {
		st.KeyUsage = map[string]*models.KeyUsage{}
	}
	m.state = st

	for _, k := range st.ExtraKeys {
		m.appendKey(k)
	}
	if m.state.KeyIndex < 0 || m.state.KeyIndex >= len(m.keys) {
		m.state.KeyIndex = 0
	}
}

// persist must be called with mu held.
func (m *Manager) persist(ctx context.Context) {
	b, err := json.Marshal(m.state)
	if err != nil {
		m.l.Warn("key state encode failed", applogger.Error(err))
		return
	}
	if err := m.store.SetItem(ctx, m.stateKey, string(b)); err != nil {
		m.l.Warn("key state save failed", applogger.Error(err))
	}
}

// usage returns the pruned usage of key, creating it when absent.
func (m *Manager) usage(key string, now int64) *models.KeyUsage {
	u, ok := m.state.KeyUsage[key]
	if !ok || u == nil {
		u = &models.KeyUsage{MinuteRequests: []int64{}, DayRequests: []int64{}}
		m.state.KeyUsage[key] = u
	}
	u.MinuteRequests = prune(u.MinuteRequests, now-minuteWindow)
	u.DayRequests = prune(u.DayRequests, now-dayWindow)
	return u
}

// prune drops timestamps at or before cutoff. ts is insertion ordered.
func prune(ts []int64, cutoff int64) []int64 {
	i := 0
	for i < len(ts) && ts[i] <= cutoff {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]int64{}, ts[i:]...)
}

func (m *Manager) hasCapacity(u *models.KeyUsage) bool {
	return len(u.MinuteRequests) < m.limits.PerMinute && len(u.DayRequests) < m.limits.PerDay
}

// GetAvailableAPIKey scans the pool round-robin from the current index and
// returns the first key with budget left in both windows.
func (m *Manager) GetAvailableAPIKey(ctx context.Context) (models.KeySelection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.keys)
	if n == 0 {
		return models.KeySelection{}, false
	}
	now := m.now().UnixMilli()

	for i := 0; i < n; i++ {
		idx := (m.state.KeyIndex + i) % n
		key := m.keys[idx]
		if !m.hasCapacity(m.usage(key, now)) {
			continue
		}
		if idx != m.state.KeyIndex {
			m.state.KeyIndex = idx
			m.persist(ctx)
		}
		return models.KeySelection{Key: key, Index: idx}, true
	}
	return models.KeySelection{}, false
}

// RecordUsage counts one successful request against key.
func (m *Manager) RecordUsage(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixMilli()
	u := m.usage(key, now)
	u.MinuteRequests = append(u.MinuteRequests, now)
	u.DayRequests = append(u.DayRequests, now)
	m.persist(ctx)
}

// MarkExhausted fills key's daily window and moves the rotation past it.
// The key becomes usable again once those entries age out.
func (m *Manager) MarkExhausted(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixMilli()
	u := m.usage(key, now)
	for len(u.DayRequests) < m.limits.PerDay {
		u.DayRequests = append(u.DayRequests, now)
	}

	if n := len(m.keys); n > 0 {
		for i, k := range m.keys {
			if k == key {
				m.state.KeyIndex = (i + 1) % n
				break
			}
		}
	}
	m.persist(ctx)

	m.metrics.RecordKeyExhausted()
	m.l.Warn("api key exhausted", applogger.String("key", util.MaskKey(key)))
}

// RemainingRequests reports per-key budget left and pool totals.
func (m *Manager) RemainingRequests(_ context.Context) models.RemainingRequests {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixMilli()
	out := models.RemainingRequests{
		TotalKeys: len(m.keys),
		Keys:      make([]models.KeyRemaining, 0, len(m.keys)),
	}
	for _, key := range m.keys {
		u := m.usage(key, now)
		kr := models.KeyRemaining{
			Key:    util.MaskKey(key),
			Minute: max(0, m.limits.PerMinute-len(u.MinuteRequests)),
			Day:    max(0, m.limits.PerDay-len(u.DayRequests)),
		}
		kr.Available = kr.Minute > 0 && kr.Day > 0
		if kr.Available {
			out.AvailableKeys++
		}
		out.Minute += kr.Minute
		out.Day += kr.Day
		out.Keys = append(out.Keys, kr)
	}
	return out
}

// AddAPIKey appends key to the pool. Empty and duplicate keys are ignored.
func (m *Manager) AddAPIKey(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key = strings.TrimSpace(key)
	if !m.appendKey(key) {
		return false
	}
	m.state.ExtraKeys = append(m.state.ExtraKeys, key)
	m.usage(key, m.now().UnixMilli())
	m.persist(ctx)

	m.l.Info("api key added", applogger.String("key", util.MaskKey(key)), applogger.Int("pool", len(m.keys)))
	return true
}

// Len returns the pool size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
