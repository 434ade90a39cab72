package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// minSweep is the bucket count that triggers the first automatic prune.
const minSweep = 1024

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillRate)
		b.last = now
	}
}

// full buckets hold no state a fresh bucket would not.
func (b *bucket) full() bool { return b.tokens >= b.capacity }

// Limiter keeps one token bucket per key. Buckets that have refilled to
// capacity are dropped once the map grows, so short-lived keys such as
// client addresses do not accumulate.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*bucket
	now     func() time.Time
	sweepAt int
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(opts ...Option) *Limiter {
	l := &Limiter{m: make(map[string]*bucket), now: time.Now, sweepAt: minSweep}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// get returns the refilled bucket for key, applying the current capacity
// and rate.
func (l *Limiter) get(key string, capacity, refillPerSec float64, now time.Time) *bucket {
	b, ok := l.m[key]
	if !ok {
		if len(l.m) >= l.sweepAt {
			l.prune(now)
			l.sweepAt = max(minSweep, 2*len(l.m))
		}
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
		return b
	}
	b.refill(now)
	b.capacity = capacity
	b.refillRate = refillPerSec
	b.tokens = math.Min(b.tokens, capacity)
	return b
}

func (l *Limiter) prune(now time.Time) int {
	removed := 0
	for k, b := range l.m {
		b.refill(now)
		if b.full() {
			delete(l.m, k)
			removed++
		}
	}
	return removed
}

// Prune drops every bucket that has refilled to capacity and returns how
// many were removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.prune(l.now())
	l.sweepAt = max(minSweep, 2*len(l.m))
	return n
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.get(key, capacity, refillPerSec, l.now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// reserve takes a token for key, possibly driving the bucket negative,
// and returns how long the caller must wait before using it.
func (l *Limiter) reserve(key string, capacity, refillPerSec float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.get(key, capacity, refillPerSec, l.now())
	b.tokens--
	if b.tokens >= 0 {
		return 0
	}
	if b.refillRate <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(-b.tokens / b.refillRate * float64(time.Second))
}

// cancel returns a reserved token.
func (l *Limiter) cancel(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.m[key]; ok {
		b.tokens = math.Min(b.capacity, b.tokens+1)
	}
}

// Wait blocks until a token for key is available or ctx is done. Waiters
// are served in reservation order.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.sleep(ctx, key, l.reserve(key, capacity, refillPerSec))
}

func (l *Limiter) sleep(ctx context.Context, key string, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.cancel(key)
		return ctx.Err()
	}
}

// Scheduler gates requests to one upstream through a shared bucket.
type Scheduler struct {
	l         *Limiter
	key       string
	perMinute int
	burst     int
	pool      func() int
}

type SchedulerOption func(*Scheduler)

// WithPool multiplies the rate by size(), read on every request, so the
// bucket follows a credential pool that can grow at runtime.
func WithPool(size func() int) SchedulerOption {
	return func(s *Scheduler) { s.pool = size }
}

// NewScheduler allows burst requests at once and perMinute on average.
func NewScheduler(l *Limiter, key string, perMinute, burst int, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		l:         l,
		key:       key,
		perMinute: max(perMinute, 1),
		burst:     max(burst, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) params() (capacity, refillPerSec float64) {
	n := 1
	if s.pool != nil {
		n = max(s.pool(), 1)
	}
	return float64(s.burst), float64(s.perMinute*n) / 60
}

// Reserve takes the next slot without blocking and returns how long the
// caller must wait before using it.
func (s *Scheduler) Reserve() time.Duration {
	capacity, rate := s.params()
	return s.l.reserve(s.key, capacity, rate)
}

// Wait blocks until the next request may be sent.
func (s *Scheduler) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.l.sleep(ctx, s.key, s.Reserve())
}
