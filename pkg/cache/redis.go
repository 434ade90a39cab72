package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis. Keys are written without expiry;
// freshness is the caller's concern.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(opts ...RedisOption) (*RedisStore, error) {
	cfg := defaultRedisConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreFromClient(client, cfg.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Client returns underlying redis client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetItem(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.wrapKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return value, nil
}

func (s *RedisStore) SetItem(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.wrapKey(key), value, 0).Err()
}

func (s *RedisStore) RemoveItem(ctx context.Context, key string) error {
	return s.client.Unlink(ctx, s.wrapKey(key)).Err()
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	pattern := BuildPattern(s.wrapKey(prefix))
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range batch {
			keys = append(keys, s.unwrapKey(key))
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *RedisStore) wrapKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisStore) unwrapKey(key string) string {
	return strings.TrimPrefix(key, s.prefix+":")
}
