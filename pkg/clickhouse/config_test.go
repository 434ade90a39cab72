package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDSNNative(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "finwatch", User: "default", Password: "p@ss"}
	WithTimeouts(5*time.Second, 0)(&cfg)
	WithMaxExecutionTime(time.Minute)(&cfg)

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)
	require.Equal(t, "clickhouse", u.Scheme)
	require.Equal(t, "ch:9000", u.Host)
	require.Equal(t, "/finwatch", u.Path)
	pw, _ := u.User.Password()
	require.Equal(t, "p@ss", pw)
	require.Equal(t, "5s", u.Query().Get("dial_timeout"))
	require.Equal(t, "60", u.Query().Get("max_execution_time"))
	require.Empty(t, u.Query().Get("read_timeout"))
}

func TestDSNHTTPAsyncInsert(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 8123, Database: "db"}
	WithHTTP(true)(&cfg)
	WithAsyncInsert(true, true)(&cfg)

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)
	require.Equal(t, "http", u.Scheme)
	require.Equal(t, "1", u.Query().Get("async_insert"))
	require.Equal(t, "1", u.Query().Get("wait_for_async_insert"))
}
