package cache

import (
	"net"
	"strconv"
	"time"
)

type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	// DialTimeout also bounds the startup ping.
	DialTimeout time.Duration
	Prefix      string
}

func defaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		PoolTimeout:  30 * time.Second,
		DialTimeout:  5 * time.Second,
		Prefix:       "finwatch",
	}
}

func WithRedisAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

// WithRedisAuth selects the password and logical database.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = poolSize
		c.MinIdleConns = minIdleConns
		c.PoolTimeout = timeout
	}
}

func WithRedisDialTimeout(d time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.DialTimeout = d
	}
}

// WithRedisPrefix namespaces every key as "<prefix>:<key>".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	MaxSize int
}

// WithMemoryMaxSize sets the key limit before LRU eviction. Zero disables the limit.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

type LayeredOption func(*LayeredConfig)

type LayeredConfig struct {
	MemoryMaxSize int
}

// WithLayeredMemorySize sets the L1 key limit.
func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		c.MemoryMaxSize = size
	}
}
