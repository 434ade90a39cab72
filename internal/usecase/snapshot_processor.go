package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinWatch/internal/domain/models"
	drepo "FinWatch/internal/domain/repository"
)

// Sink backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendRedis      = "redis"
)

// SnapshotProcessor routes aggregated watchlists to the configured backend.
type SnapshotProcessor struct {
	pub     drepo.SnapshotPublisher
	store   drepo.SnapshotStorage
	metrics drepo.Metrics
	backend string
}

func NewSnapshotProcessor(pub drepo.SnapshotPublisher, store drepo.SnapshotStorage, metrics drepo.Metrics, backend string) *SnapshotProcessor {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if backend == "" {
		backend = BackendNone
	}
	return &SnapshotProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

func (p *SnapshotProcessor) Backend() string { return p.backend }

// Process hands r to the backend. The none backend accepts everything.
func (p *SnapshotProcessor) Process(ctx context.Context, r *models.WatchlistResult) error {
	if r == nil {
		return errors.New("snapshot is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendNone:
		return nil
	case BackendKafka, BackendRedis:
		if p.pub == nil {
			return fmt.Errorf("%s backend has no publisher", p.backend)
		}
		err = p.pub.Publish(ctx, r)
	case BackendClickHouse:
		if p.store == nil {
			return errors.New("clickhouse backend has no storage")
		}
		err = p.store.Store(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("snapshot")
		return fmt.Errorf("process snapshot %s: %w", r.ID, err)
	}

	p.metrics.RecordSnapshotSent(p.backend)
	p.metrics.RecordLatency("snapshot", time.Since(start).Seconds())
	return nil
}

// Close releases the publisher and storage, if any.
func (p *SnapshotProcessor) Close() error {
	var errs []error
	if p.pub != nil {
		errs = append(errs, p.pub.Close())
	}
	if p.store != nil {
		errs = append(errs, p.store.Close())
	}
	return errors.Join(errs...)
}
