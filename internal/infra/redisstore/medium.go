package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTimeout bounds each synchronous medium call
const DefaultTimeout = 2 * time.Second

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Optional key namespace (e.g. "dash:")
	Timeout  time.Duration
}

// Medium is a watchlist medium backed by plain Redis GET/SET.
// Concurrent writers on the same key are last-writer-wins.
type Medium struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

// New connects to Redis and verifies the connection
func New(opts Options) (*Medium, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	m := NewWithClient(rdb, opts.Prefix, opts.Timeout)

	// Verify connection
	if err := m.Health(context.Background()); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return m, nil
}

// NewWithClient wraps an existing client
func NewWithClient(rdb *redis.Client, prefix string, timeout time.Duration) *Medium {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Medium{rdb: rdb, prefix: prefix, timeout: timeout}
}

// Load returns the stored value, or (nil, nil) if the key does not exist
func (m *Medium) Load(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	data, err := m.rdb.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

// Save stores value without expiry
func (m *Medium) Save(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	return m.rdb.Set(ctx, m.prefix+key, value, 0).Err()
}

// Health checks Redis connectivity
func (m *Medium) Health(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (m *Medium) Close() error {
	return m.rdb.Close()
}
