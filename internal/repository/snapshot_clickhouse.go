package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/domain/repository"
)

const snapshotColumns = "ts, snapshot_id, ticker, type, price, change_24h, approximate"

// ClickHouseSnapshotStorage stores one row per asset of every snapshot.
type ClickHouseSnapshotStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseSnapshotStorage uses <database>.watchlist_snapshots.
func NewClickHouseSnapshotStorage(db *sql.DB, database string) repository.SnapshotStorage {
	return &ClickHouseSnapshotStorage{db: db, table: database + ".watchlist_snapshots"}
}

// SchemaStatements returns the DDL for database.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.watchlist_snapshots (
	ts DateTime64(3, 'UTC'),
	snapshot_id String,
	ticker LowCardinality(String),
	type LowCardinality(String),
	price Float64,
	change_24h Float64,
	approximate UInt8
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (ticker, ts)`, database),
	}
}

func (s *ClickHouseSnapshotStorage) Init(ctx context.Context) error {
	database, _, _ := strings.Cut(s.table, ".")
	for _, stmt := range SchemaStatements(database) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init snapshots table: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSnapshotStorage) Store(ctx context.Context, r *models.WatchlistResult) error {
	if r == nil {
		return errors.New("nil snapshot")
	}
	q, args := insertSnapshot(s.table, r)
	if q == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert snapshot %s: %w", r.ID, err)
	}
	return nil
}

// insertSnapshot builds one multi-row INSERT for r; it returns an empty
// query when r has no assets.
func insertSnapshot(table string, r *models.WatchlistResult) (string, []interface{}) {
	if len(r.Assets) == 0 {
		return "", nil
	}
	ts := r.FetchedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	values := make([]string, 0, len(r.Assets))
	args := make([]interface{}, 0, len(r.Assets)*7)
	for _, a := range r.Assets {
		var approx uint8
		if a.SparklineApproximate {
			approx = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, ts.UTC(), r.ID, strings.ToUpper(a.Ticker), string(a.Type), a.Price, a.Change24h, approx)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, snapshotColumns, strings.Join(values, ", "))
	return q, args
}

func (s *ClickHouseSnapshotStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the clickhouse client.
func (s *ClickHouseSnapshotStorage) Close() error { return nil }
