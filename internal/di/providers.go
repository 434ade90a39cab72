package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"FinWatch/internal/domain/repository"
	"FinWatch/internal/handler/api"
	internalrepo "FinWatch/internal/repository"
	"FinWatch/internal/service/alphavantage"
	icache "FinWatch/internal/service/cache"
	"FinWatch/internal/service/crypto"
	"FinWatch/internal/service/fetch"
	"FinWatch/internal/service/keyrotation"
	"FinWatch/internal/service/ratelimit"
	"FinWatch/internal/usecase"
	pkgcache "FinWatch/pkg/cache"
	pkgch "FinWatch/pkg/clickhouse"
	"FinWatch/pkg/config"
	xhttp "FinWatch/pkg/http"
	pkgkafka "FinWatch/pkg/kafka"
	applogger "FinWatch/pkg/logger"
	"FinWatch/pkg/metrics"
	"FinWatch/pkg/queue"
	"FinWatch/pkg/server"
)

const startupTimeout = 10 * time.Second

// ProvideLogger builds the app logger. When the collector is enabled,
// aggregated errors are shipped to Kafka.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	lc := cfg.Log.Collector
	if !lc.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return l, func() {}, nil
	}

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("log collector: %w", err)
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:    lc.Interval,
		CountThreshold:  lc.CountThreshold,
		Topic:           lc.Topic,
		Publisher:       producer,
		IncludeWarnings: lc.IncludeWarnings,
	})
	return l, func() {
		l.RemoveCollector()
		_ = producer.Close()
	}, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideKVStore opens the durable key-value backend selected by store.type.
func ProvideKVStore(cfg *config.Config, l *applogger.Logger) (pkgcache.Store, func(), error) {
	sc := cfg.Store
	var (
		kv  pkgcache.Store
		err error
	)
	switch sc.Type {
	case "redis", "layered":
		var rs *pkgcache.RedisStore
		rs, err = pkgcache.NewRedisStore(
			pkgcache.WithRedisAddr(sc.Redis.Host, sc.Redis.Port),
			pkgcache.WithRedisAuth(sc.Redis.Password, sc.Redis.DB),
			pkgcache.WithRedisPool(sc.Redis.PoolSize, sc.Redis.PoolSize/2, 30*time.Second),
			pkgcache.WithRedisPrefix(sc.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		kv = rs
		if sc.Type == "layered" {
			kv = pkgcache.NewLayeredStore(rs, pkgcache.WithLayeredMemorySize(sc.MemoryMaxSize))
		}
	default:
		kv = pkgcache.NewMemoryStore(pkgcache.WithMemoryMaxSize(sc.MemoryMaxSize))
	}

	l.Info("kv store ready", applogger.String("type", sc.Type))
	return kv, func() {
		if err := kv.Close(); err != nil {
			l.Warn("kv store close error", applogger.Error(err))
		}
	}, nil
}

// ProvideCacheStore builds the TTL cache over the kv store.
func ProvideCacheStore(cfg *config.Config, kv pkgcache.Store, l *applogger.Logger, m repository.Metrics) *icache.Store {
	return icache.NewStore(kv,
		icache.WithNamespace(cfg.Cache.Namespace),
		icache.WithLogger(l.With("cache")),
		icache.WithMetrics(m),
	)
}

// ProvideKeyManager restores the key rotation state from the kv store.
func ProvideKeyManager(cfg *config.Config, kv pkgcache.Store, l *applogger.Logger, m repository.Metrics) *keyrotation.Manager {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	av := cfg.AlphaVantage
	return keyrotation.NewManager(ctx, kv, av.APIKeys,
		keyrotation.WithLimits(keyrotation.Limits{PerMinute: av.RequestsPerMinute, PerDay: av.RequestsPerDay}),
		keyrotation.WithLogger(l.With("keys")),
		keyrotation.WithMetrics(m),
	)
}

// ProvideLimiter is shared by the provider schedulers and client throttling.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

func retryConfig(cfg *config.Config) fetch.RetryConfig {
	return fetch.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
}

// stockScheduler spaces stock requests by the per-minute budget of the whole
// key pool, so keys added at runtime raise throughput.
func stockScheduler(cfg *config.Config, limiter *ratelimit.Limiter, keys *keyrotation.Manager) *ratelimit.Scheduler {
	return ratelimit.NewScheduler(limiter, "provider:alphavantage", cfg.AlphaVantage.RequestsPerMinute, 1,
		ratelimit.WithPool(keys.Len),
	)
}

// ProvideStockClient builds the stock adapter. Shared loads run detached
// from any one caller and are bounded by the request timeout.
func ProvideStockClient(
	cfg *config.Config,
	keys *keyrotation.Manager,
	cache *icache.Store,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
	m repository.Metrics,
) *alphavantage.Client {
	av := cfg.AlphaVantage
	log := l.With("alphavantage")
	doer := xhttp.NewClient(xhttp.WithTimeout(av.Timeout))

	api := alphavantage.NewAPI(av.BaseURL, doer, keys,
		fetch.WithRetry(retryConfig(cfg)),
		fetch.WithMetrics(m),
		fetch.WithLogger(log),
	)
	return alphavantage.NewClient(api, cache, stockScheduler(cfg, limiter, keys),
		alphavantage.WithLoadTimeout(cfg.Server.RequestTimeout),
		alphavantage.WithLogger(log),
		alphavantage.WithMetrics(m),
		alphavantage.WithNewsLimit(av.NewsLimit),
	)
}

// ProvideCryptoClient builds the crypto adapter with its own bucket.
func ProvideCryptoClient(
	cfg *config.Config,
	cache *icache.Store,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
	m repository.Metrics,
) *crypto.Client {
	cc := cfg.Crypto
	doer := xhttp.NewClient(xhttp.WithTimeout(cc.Timeout))
	scheduler := ratelimit.NewScheduler(limiter, "provider:crypto", cc.RequestsPerMinute, cc.Burst)
	return crypto.NewClient(cc.BaseURL, cc.Token, doer, cache, scheduler,
		crypto.WithPaths(cc.QuotePath, cc.HistoryPath),
		crypto.WithRetry(retryConfig(cfg)),
		crypto.WithLogger(l.With("crypto")),
		crypto.WithMetrics(m),
	)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	kc := cfg.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(kc.Brokers),
		pkgkafka.WithCompression(kc.Compression),
		pkgkafka.WithRequiredAcks(kc.RequiredAcks),
		pkgkafka.WithMaxAttempts(kc.Producer.MaxAttempts),
		pkgkafka.WithBatching(kc.Producer.BatchSize, kc.Producer.BatchBytes, kc.Producer.Linger),
		pkgkafka.WithTimeouts(kc.Producer.WriteTimeout, kc.Producer.ReadTimeout),
		pkgkafka.WithAsync(kc.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient connects and ensures the snapshot schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ch := cfg.ClickHouse
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddress(ch.Host, ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(ch.Database)...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func redisClientOf(kv pkgcache.Store) *redis.Client {
	switch s := kv.(type) {
	case *pkgcache.RedisStore:
		return s.Client()
	case *pkgcache.LayeredStore:
		return s.Redis().Client()
	}
	return nil
}

// ProvideSnapshotProcessor connects only the backend named by sink.backend.
func ProvideSnapshotProcessor(cfg *config.Config, kv pkgcache.Store, l *applogger.Logger, m repository.Metrics) (*usecase.SnapshotProcessor, func(), error) {
	var (
		pub     repository.SnapshotPublisher
		store   repository.SnapshotStorage
		cleanup = func() {}
	)

	switch cfg.Sink.Backend {
	case usecase.BackendKafka:
		producer, err := ProvideKafkaProducer(cfg)
		if err != nil {
			return nil, nil, err
		}
		pub = internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
	case usecase.BackendClickHouse:
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store = internalrepo.NewClickHouseSnapshotStorage(client.DB(), cfg.ClickHouse.Database)
		cleanup = func() { _ = client.Close() }
	case usecase.BackendRedis:
		client := redisClientOf(kv)
		if client == nil {
			return nil, nil, fmt.Errorf("redis sink needs a redis-backed store, got %s", cfg.Store.Type)
		}
		pub = internalrepo.NewRedisSnapshotPublisher(queue.NewRedisPublisher(client,
			queue.WithKeyPrefix(cfg.Store.Redis.Prefix+":queue"),
			queue.WithMaxLen(cfg.Sink.RedisMaxLen),
		))
	}

	p := usecase.NewSnapshotProcessor(pub, store, m, cfg.Sink.Backend)
	l.Info("snapshot sink ready", applogger.String("backend", p.Backend()))
	return p, func() {
		if err := p.Close(); err != nil {
			l.Warn("snapshot sink close error", applogger.Error(err))
		}
		cleanup()
	}, nil
}

func ProvideWatchlistAggregator(
	stocks *alphavantage.Client,
	cryptoClient *crypto.Client,
	sink *usecase.SnapshotProcessor,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.WatchlistAggregator {
	return usecase.NewWatchlistAggregator(stocks, cryptoClient,
		usecase.WithSink(sink),
		usecase.WithAggregatorLogger(l.With("watchlist")),
		usecase.WithAggregatorMetrics(m),
	)
}

func ProvideMarket(
	agg *usecase.WatchlistAggregator,
	stocks *alphavantage.Client,
	cryptoClient *crypto.Client,
	keys *keyrotation.Manager,
	l *applogger.Logger,
) *usecase.Market {
	return usecase.NewMarket(agg, stocks, cryptoClient, keys, l.With("market"))
}

func ProvideMarketHandler(cfg *config.Config, l *applogger.Logger, market *usecase.Market, limiter *ratelimit.Limiter) *api.MarketEchoHandler {
	rate := api.ClientRate{
		Capacity:     cfg.Server.ClientRate.Capacity,
		RefillPerSec: cfg.Server.ClientRate.RefillPerSec,
	}
	return api.NewMarketEchoHandler(l.With("api"), market, limiter, rate, cfg.Server.RequestTimeout)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.MarketEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l.With("http")),
	)
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, cache *icache.Store) *server.App {
	return server.New(cfg, l, srv, cache)
}
