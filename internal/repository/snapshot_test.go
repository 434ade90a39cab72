package repository

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FinWatch/internal/domain/models"
)

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func sampleResult() *models.WatchlistResult {
	return &models.WatchlistResult{
		ID:        "snap-1",
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Assets: []models.FinancialAsset{
			{Ticker: "aapl", Type: models.AssetStock, Price: 190, Change24h: 1.5},
			{Ticker: "BTC", Type: models.AssetCrypto, Price: 64000, Change24h: -2, SparklineApproximate: true},
		},
	}
}

func TestKafkaSnapshotPublisherKeysByID(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaSnapshotPublisher(fp, "finwatch.watchlist")

	require.NoError(t, pub.Publish(context.Background(), sampleResult()))
	require.Equal(t, "finwatch.watchlist", fp.topic)
	require.Equal(t, "snap-1", string(fp.key))

	b, err := json.Marshal(fp.value)
	require.NoError(t, err)
	require.Contains(t, string(b), `"id":"snap-1"`)

	require.Error(t, pub.Publish(context.Background(), nil))
	require.NoError(t, pub.Close())
	require.True(t, fp.closed)
}

func TestInsertSnapshotOneRowPerAsset(t *testing.T) {
	q, args := insertSnapshot("finwatch.watchlist_snapshots", sampleResult())
	require.True(t, strings.HasPrefix(q, "INSERT INTO finwatch.watchlist_snapshots ("+snapshotColumns+") VALUES"))
	require.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 14)
	require.Equal(t, "AAPL", args[2])
	require.Equal(t, uint8(0), args[6])
	require.Equal(t, "crypto", args[10])
	require.Equal(t, uint8(1), args[13])
}

func TestInsertSnapshotEmpty(t *testing.T) {
	q, args := insertSnapshot("t", &models.WatchlistResult{ID: "x"})
	require.Empty(t, q)
	require.Nil(t, args)
}

func TestSchemaStatementsUseDatabase(t *testing.T) {
	stmts := SchemaStatements("finwatch")
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[1], "finwatch.watchlist_snapshots")
	require.Contains(t, stmts[1], "approximate UInt8")
}

type fakeQueue struct {
	msgType string
	payload interface{}
	closed  bool
}

func (f *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	f.msgType, f.payload = msgType, payload
	return nil
}

func (f *fakeQueue) Close() error {
	f.closed = true
	return nil
}

func TestRedisSnapshotPublisher(t *testing.T) {
	fq := &fakeQueue{}
	pub := NewRedisSnapshotPublisher(fq)

	r := sampleResult()
	require.NoError(t, pub.Publish(context.Background(), r))
	require.Equal(t, SnapshotMessageType, fq.msgType)
	require.Same(t, r, fq.payload)

	require.Error(t, pub.Publish(context.Background(), nil))
	require.NoError(t, pub.Close())
	require.True(t, fq.closed)
}
