package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"FinWatch/internal/domain/repository"
	pkgcache "FinWatch/pkg/cache"
	applogger "FinWatch/pkg/logger"
)

const defaultNamespace = "finwatch_cache_"

// Store is a namespaced TTL cache over a durable key-value store.
// Failures never propagate: a broken read is a miss and a broken write is dropped.
type Store struct {
	kv        pkgcache.Store
	namespace string
	now       func() time.Time
	l         *applogger.Logger
	metrics   repository.Metrics
}

type Option func(*Store)

func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Store) { s.l = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(kv pkgcache.Store, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		namespace: defaultNamespace,
		now:       time.Now,
		l:         applogger.Nop(),
		metrics:   repository.NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey builds the namespaced key for a data type and identifier.
func (s *Store) CacheKey(t DataType, id string) string {
	return pkgcache.GenerateKey(s.namespace, string(t)+"_"+id)
}

// Get returns the cached value for key. Expired entries are removed and
// reported as a miss.
func Get[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var zero T

	raw, err := s.kv.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgcache.ErrCacheMiss) {
			s.l.Debug("cache read failed", applogger.String("key", key), applogger.Error(err))
		}
		s.metrics.RecordCacheEvent(s.dataType(key), false)
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.l.Debug("cache entry undecodable", applogger.String("key", key), applogger.Error(err))
		s.remove(ctx, key)
		s.metrics.RecordCacheEvent(s.dataType(key), false)
		return zero, false
	}

	if s.now().UnixMilli() > entry.ExpiresAt {
		s.remove(ctx, key)
		s.metrics.RecordCacheEvent(s.dataType(key), false)
		return zero, false
	}

	s.metrics.RecordCacheEvent(s.dataType(key), true)
	return entry.Data, true
}

// Set stores data under key with the given ttl.
func Set[T any](ctx context.Context, s *Store, key string, data T, ttl time.Duration) {
	now := s.now().UnixMilli()
	entry := Entry[T]{
		Data:      data,
		Timestamp: now,
		ExpiresAt: now + ttl.Milliseconds(),
	}

	b, err := json.Marshal(entry)
	if err != nil {
		s.l.Warn("cache encode failed", applogger.String("key", key), applogger.Error(err))
		return
	}
	if err := s.kv.SetItem(ctx, key, string(b)); err != nil {
		// quota exceeded or backend down; the value is simply not cached
		s.l.Warn("cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// ClearExpired sweeps the whole namespace and removes expired or corrupt
// entries. It returns the number of removed keys.
func (s *Store) ClearExpired(ctx context.Context) int {
	keys, err := s.kv.Keys(ctx, s.namespace)
	if err != nil {
		s.l.Warn("cache sweep: list keys failed", applogger.Error(err))
		return 0
	}

	now := s.now().UnixMilli()
	removed := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		raw, err := s.kv.GetItem(ctx, key)
		if err != nil {
			continue
		}
		var header struct {
			ExpiresAt *int64 `json:"expiresAt"`
		}
		if err := json.Unmarshal([]byte(raw), &header); err != nil || header.ExpiresAt == nil || now > *header.ExpiresAt {
			if s.remove(ctx, key) {
				removed++
			}
		}
	}

	if removed > 0 {
		s.l.Info("cache sweep done", applogger.Int("removed", removed), applogger.Int("scanned", len(keys)))
	}
	return removed
}

func (s *Store) remove(ctx context.Context, key string) bool {
	if err := s.kv.RemoveItem(ctx, key); err != nil {
		s.l.Debug("cache remove failed", applogger.String("key", key), applogger.Error(err))
		return false
	}
	return true
}

func (s *Store) dataType(key string) string {
	rest := strings.TrimPrefix(key, s.namespace)
	if i := strings.IndexByte(rest, '_'); i > 0 {
		return rest[:i]
	}
	return "unknown"
}
