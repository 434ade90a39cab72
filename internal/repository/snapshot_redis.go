package repository

import (
	"context"
	"errors"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
	"FinWatch/pkg/queue"
)

// SnapshotMessageType names the Redis list that receives watchlist results.
const SnapshotMessageType = "watchlist_snapshot"

type queuePublisher interface {
	queue.QueueService
	Close() error
}

// RedisSnapshotPublisher pushes watchlist results onto a Redis list.
type RedisSnapshotPublisher struct {
	q queuePublisher
}

func NewRedisSnapshotPublisher(q queuePublisher) repository.SnapshotPublisher {
	return &RedisSnapshotPublisher{q: q}
}

func (p *RedisSnapshotPublisher) Publish(ctx context.Context, r *models.WatchlistResult) error {
	if r == nil {
		return errors.New("nil snapshot")
	}
	return p.q.PublishMessage(ctx, SnapshotMessageType, r)
}

func (p *RedisSnapshotPublisher) Close() error {
	return p.q.Close()
}
