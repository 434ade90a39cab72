package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeList struct {
	lists   map[string][][]byte
	trimmed map[string]int64
	pushErr error
}

func newFakeList() *fakeList {
	return &fakeList{lists: map[string][][]byte{}, trimmed: map[string]int64{}}
}

func (f *fakeList) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.pushErr != nil {
		cmd.SetErr(f.pushErr)
		return cmd
	}
	for _, v := range values {
		f.lists[key] = append([][]byte{v.([]byte)}, f.lists[key]...)
	}
	cmd.SetVal(int64(len(f.lists[key])))
	return cmd
}

func (f *fakeList) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	f.trimmed[key] = stop
	if int64(len(f.lists[key])) > stop+1 {
		f.lists[key] = f.lists[key][start : stop+1]
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

type tick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestEnqueueWrapsPayload(t *testing.T) {
	fl := newFakeList()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	p := newRedisPublisher(fl, WithKeyPrefix("test:q"))
	p.now = func() time.Time { return at }
	p.newID = func() string { return "msg-1" }

	require.NoError(t, p.PublishMessage(context.Background(), "watchlist", tick{Symbol: "AAPL", Price: 190.5}))

	entries := fl.lists["test:q:watchlist"]
	require.Len(t, entries, 1)

	msg, payload, err := ParseMessage[tick](entries[0])
	require.NoError(t, err)
	require.Equal(t, "msg-1", msg.ID)
	require.Equal(t, "watchlist", msg.Type)
	require.True(t, at.Equal(msg.Timestamp))
	require.Equal(t, tick{Symbol: "AAPL", Price: 190.5}, *payload)
}

func TestEnqueueTrimsToMaxLen(t *testing.T) {
	fl := newFakeList()
	p := newRedisPublisher(fl, WithMaxLen(2))

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Enqueue(context.Background(), "t", tick{Price: float64(i)}))
	}
	require.Len(t, fl.lists[p.Key("t")], 2)
	require.EqualValues(t, 1, fl.trimmed[p.Key("t")])

	_, newest, err := ParseMessage[tick](fl.lists[p.Key("t")][0])
	require.NoError(t, err)
	require.Equal(t, 4.0, newest.Price)
}

func TestEnqueueUnbounded(t *testing.T) {
	fl := newFakeList()
	p := newRedisPublisher(fl, WithMaxLen(0))
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Enqueue(context.Background(), "t", i))
	}
	require.Len(t, fl.lists[p.Key("t")], 3)
	require.Empty(t, fl.trimmed)
}

func TestEnqueueErrors(t *testing.T) {
	fl := newFakeList()
	fl.pushErr = errors.New("connection refused")
	p := newRedisPublisher(fl)

	err := p.Enqueue(context.Background(), "t", tick{})
	require.ErrorContains(t, err, "connection refused")

	err = p.Enqueue(context.Background(), "t", make(chan int))
	require.ErrorContains(t, err, "marshal payload")
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	_, _, err := ParseMessage[tick]([]byte("not json"))
	require.Error(t, err)

	msg, _, err := ParseMessage[tick]([]byte(`{"id":"x","type":"t","payload":"str"}`))
	require.Error(t, err)
	require.Equal(t, "x", msg.ID)
}
