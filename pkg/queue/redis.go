package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// listClient is the subset of redis commands the publisher needs.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// RedisPublisher pushes messages onto capped Redis lists, one list per
// message type. Consumers read from the tail.
type RedisPublisher struct {
	client    listClient
	keyPrefix string
	maxLen    int64
	now       func() time.Time
	newID     func() string
}

// RedisPublisherOption configures RedisPublisher.
type RedisPublisherOption func(*RedisPublisher)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisPublisherOption {
	return func(r *RedisPublisher) {
		r.keyPrefix = prefix
	}
}

// WithMaxLen caps every list; older entries are trimmed. 0 disables the cap.
func WithMaxLen(n int64) RedisPublisherOption {
	return func(r *RedisPublisher) {
		r.maxLen = n
	}
}

func NewRedisPublisher(client *redis.Client, opts ...RedisPublisherOption) *RedisPublisher {
	return newRedisPublisher(client, opts...)
}

func newRedisPublisher(client listClient, opts ...RedisPublisherOption) *RedisPublisher {
	r := &RedisPublisher{
		client:    client,
		keyPrefix: "finwatch:queue",
		maxLen:    1000,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue wraps payload in a Message and pushes it to the list for msgType.
func (r *RedisPublisher) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{
		ID:        r.newID(),
		Type:      msgType,
		Payload:   body,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := r.Key(msgType)
	if err := r.client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	if r.maxLen > 0 {
		if err := r.client.LTrim(ctx, key, 0, r.maxLen-1).Err(); err != nil {
			return fmt.Errorf("ltrim %s: %w", key, err)
		}
	}
	return nil
}

// PublishMessage publishes a message (implements QueueService).
func (r *RedisPublisher) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return r.Enqueue(ctx, msgType, payload)
}

// Key returns the list key for msgType.
func (r *RedisPublisher) Key(msgType string) string {
	return r.keyPrefix + ":" + msgType
}

// Close is a no-op; the client belongs to the kv store.
func (r *RedisPublisher) Close() error {
	return nil
}

var _ QueueService = (*RedisPublisher)(nil)
