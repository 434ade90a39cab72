package cache

import (
	"context"
	"errors"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Store is a durable string key-value store. Values are opaque strings,
// callers own serialization.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	// Keys lists stored keys beginning with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
