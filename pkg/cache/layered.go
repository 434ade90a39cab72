package cache

import (
	"context"
	"errors"
)

// LayeredStore implements a two-level store (L1: memory, L2: Redis).
// Redis stays the source of truth; memory only saves round trips.
type LayeredStore struct {
	mem   *MemoryStore
	redis *RedisStore
}

// NewLayeredStore creates a layered store over Redis.
func NewLayeredStore(redisStore *RedisStore, opts ...LayeredOption) *LayeredStore {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredStore{
		mem:   NewMemoryStore(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redis: redisStore,
	}
}

// Redis returns the L2 store.
func (ls *LayeredStore) Redis() *RedisStore { return ls.redis }

func (ls *LayeredStore) GetItem(ctx context.Context, key string) (string, error) {
	if value, err := ls.mem.GetItem(ctx, key); err == nil {
		return value, nil
	}

	value, err := ls.redis.GetItem(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", ErrCacheMiss
		}
		return "", err
	}

	_ = ls.mem.SetItem(ctx, key, value)
	return value, nil
}

func (ls *LayeredStore) SetItem(ctx context.Context, key, value string) error {
	// Write-through: Redis first, then memory
	if err := ls.redis.SetItem(ctx, key, value); err != nil {
		return err
	}
	return ls.mem.SetItem(ctx, key, value)
}

func (ls *LayeredStore) RemoveItem(ctx context.Context, key string) error {
	_ = ls.mem.RemoveItem(ctx, key)
	return ls.redis.RemoveItem(ctx, key)
}

func (ls *LayeredStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	return ls.redis.Keys(ctx, prefix)
}

// Close closes both layers.
func (ls *LayeredStore) Close() error {
	_ = ls.mem.Close()
	return ls.redis.Close()
}
