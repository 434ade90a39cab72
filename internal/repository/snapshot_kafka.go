package repository

import (
	"context"
	"errors"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
)

type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSnapshotPublisher writes each watchlist result as one JSON message
// keyed by its ID.
type KafkaSnapshotPublisher struct {
	producer messagePublisher
	topic    string
}

func NewKafkaSnapshotPublisher(producer messagePublisher, topic string) repository.SnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, r *models.WatchlistResult) error {
	if r == nil {
		return errors.New("nil snapshot")
	}
	return p.producer.Publish(ctx, p.topic, []byte(r.ID), r)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
