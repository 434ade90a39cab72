package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetItem(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := s.SetItem(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.GetItem(ctx, "a")
	if err != nil || got != "1" {
		t.Fatalf("get = %q, %v", got, err)
	}

	if err := s.RemoveItem(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.GetItem(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after remove, got %v", err)
	}
}

func TestMemoryStoreKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.SetItem(ctx, "fw_quote_AAPL", "x")
	_ = s.SetItem(ctx, "fw_chart_AAPL", "y")
	_ = s.SetItem(ctx, "other", "z")

	keys, err := s.Keys(ctx, "fw_")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "fw_chart_AAPL" || keys[1] != "fw_quote_AAPL" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMemoryMaxSize(2))

	_ = s.SetItem(ctx, "first", "1")
	time.Sleep(time.Millisecond)
	_ = s.SetItem(ctx, "second", "2")
	time.Sleep(time.Millisecond)
	// touch first so second becomes the oldest
	_, _ = s.GetItem(ctx, "first")
	time.Sleep(time.Millisecond)
	_ = s.SetItem(ctx, "third", "3")

	if s.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", s.Len())
	}
	if _, err := s.GetItem(ctx, "second"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected second to be evicted, got %v", err)
	}
	if _, err := s.GetItem(ctx, "first"); err != nil {
		t.Fatalf("first should survive: %v", err)
	}
}

func TestMemoryStoreOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMemoryMaxSize(1))
	_ = s.SetItem(ctx, "k", "1")
	_ = s.SetItem(ctx, "k", "2")

	got, err := s.GetItem(ctx, "k")
	if err != nil || got != "2" {
		t.Fatalf("get = %q, %v", got, err)
	}
}
