package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory with LRU eviction.
type MemoryStore struct {
	data    map[string]string
	access  map[string]time.Time
	mutex   sync.RWMutex
	maxSize int
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &MemoryConfig{
		MaxSize: 1000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryStore{
		data:    make(map[string]string),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
	}
}

func (ms *MemoryStore) GetItem(_ context.Context, key string) (string, error) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	value, ok := ms.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	ms.access[key] = time.Now()
	return value, nil
}

func (ms *MemoryStore) SetItem(_ context.Context, key, value string) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if _, exists := ms.data[key]; !exists && ms.maxSize > 0 && len(ms.data) >= ms.maxSize {
		ms.evictLRU()
	}

	ms.data[key] = value
	ms.access[key] = time.Now()
	return nil
}

func (ms *MemoryStore) RemoveItem(_ context.Context, key string) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	delete(ms.data, key)
	delete(ms.access, key)
	return nil
}

func (ms *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	keys := make([]string, 0, len(ms.data))
	for key := range ms.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (ms *MemoryStore) Len() int {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	return len(ms.data)
}

func (ms *MemoryStore) Close() error {
	return nil
}

func (ms *MemoryStore) evictLRU() {
	if len(ms.data) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, accessTime := range ms.access {
		if oldestKey == "" || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	delete(ms.data, oldestKey)
	delete(ms.access, oldestKey)
}
