package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FinWatch/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// RequestTimeout bounds one API call end to end, scheduler waits
		// included. The default covers a full minute of one key's budget.
		RequestTimeout time.Duration `yaml:"request_timeout" default:"75s"`
		CORSOrigins    []string      `yaml:"cors_origins"`
		ClientRate     struct {
			Capacity     float64 `yaml:"capacity" default:"30"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
		} `yaml:"client_rate"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"console"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled         bool          `yaml:"enabled"`
			Topic           string        `yaml:"topic" default:"finwatch.logs"`
			Interval        time.Duration `yaml:"interval" default:"30s"`
			CountThreshold  int           `yaml:"count_threshold" default:"100"`
			IncludeWarnings bool          `yaml:"include_warnings" default:"true"`
		} `yaml:"collector"`
	} `yaml:"log"`
	AlphaVantage struct {
		BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
		APIKeys           []string      `yaml:"api_keys"`
		RequestsPerMinute int           `yaml:"requests_per_minute" default:"5"`
		RequestsPerDay    int           `yaml:"requests_per_day" default:"25"`
		Timeout           time.Duration `yaml:"timeout" default:"15s"`
		NewsLimit         int           `yaml:"news_limit" default:"10"`
	} `yaml:"alphavantage"`
	Crypto struct {
		BaseURL           string        `yaml:"base_url" default:"https://api.freecryptoapi.com/v1"`
		Token             string        `yaml:"token"`
		QuotePath         string        `yaml:"quote_path" default:"/getData"`
		HistoryPath       string        `yaml:"history_path" default:"/getHistory"`
		RequestsPerMinute int           `yaml:"requests_per_minute" default:"60"`
		Burst             int           `yaml:"burst" default:"5"`
		Timeout           time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"crypto"`
	Retry struct {
		MaxAttempts int           `yaml:"max_attempts" default:"3"`
		BaseDelay   time.Duration `yaml:"base_delay" default:"1s"`
		MaxDelay    time.Duration `yaml:"max_delay" default:"10s"`
	} `yaml:"retry"`
	Store struct {
		// Type selects the durable key-value backend: memory, redis or layered.
		Type          string `yaml:"type" default:"memory"`
		MemoryMaxSize int    `yaml:"memory_max_size" default:"5000"`
		Redis         struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"finwatch"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Cache struct {
		Namespace     string        `yaml:"namespace" default:"finwatch_cache_"`
		SweepInterval time.Duration `yaml:"sweep_interval" default:"10m"`
	} `yaml:"cache"`
	Sink struct {
		// Backend receives every aggregated watchlist: none, kafka, clickhouse or redis.
		Backend string `yaml:"backend" default:"none"`
		// RedisMaxLen caps the snapshot list for the redis backend.
		RedisMaxLen int64 `yaml:"redis_max_len" default:"1000"`
	} `yaml:"sink"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"finwatch.watchlist"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finwatch"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the default configuration and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := envInt("PORT", 0); v > 0 {
		c.Server.Port = v
	}
	if v := envList("ALPHAVANTAGE_API_KEYS"); len(v) > 0 {
		c.AlphaVantage.APIKeys = v
	}
	if v := os.Getenv("CRYPTO_API_TOKEN"); v != "" {
		c.Crypto.Token = v
	}
	if v := os.Getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Store.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("SINK_BACKEND"); v != "" {
		c.Sink.Backend = v
	}
	if v := envList("KAFKA_BROKERS"); len(v) > 0 {
		c.Kafka.Brokers = v
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.AlphaVantage.RequestsPerMinute <= 0 || c.AlphaVantage.RequestsPerDay <= 0 {
		return fmt.Errorf("alphavantage request limits must be positive")
	}
	if c.Server.WriteTimeout > 0 && c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("server.request_timeout (%s) must be below server.write_timeout (%s)", c.Server.RequestTimeout, c.Server.WriteTimeout)
	}
	if c.Crypto.RequestsPerMinute <= 0 {
		return fmt.Errorf("crypto.requests_per_minute must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	switch c.Store.Type {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("store.type must be 'memory', 'redis' or 'layered', got '%s'", c.Store.Type)
	}
	switch c.Sink.Backend {
	case "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when sink.backend is kafka")
		}
	case "clickhouse":
		if c.ClickHouse.Database == "" {
			return fmt.Errorf("clickhouse.database is required when sink.backend is clickhouse")
		}
	case "redis":
		if c.Store.Type == "memory" {
			return fmt.Errorf("sink.backend redis requires store.type redis or layered")
		}
	default:
		return fmt.Errorf("sink.backend must be 'none', 'kafka', 'clickhouse' or 'redis', got '%s'", c.Sink.Backend)
	}
	if c.Log.Collector.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("log.collector requires kafka.brokers")
	}
	return nil
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	return util.ParseIntDefault(os.Getenv(key), fallback)
}
