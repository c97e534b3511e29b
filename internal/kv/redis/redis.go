// Package redis implements kv.Store on Redis strings.
//
// Keys are namespaced with a prefix so several applications can share one
// Redis database. Every operation runs under its own timeout because the
// kv.Store interface is synchronous.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shakelz/assetgate/internal/kv"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "assetgate:"

// DefaultTimeout bounds each Redis round trip.
const DefaultTimeout = 2 * time.Second

// Config configures the Redis store.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Prefix is prepended to every key (default assetgate:).
	Prefix string
	// Timeout bounds each operation (default 2s).
	Timeout time.Duration
}

// Store is a kv.Store backed by Redis.
type Store struct {
	config Config
	client *goredis.Client
}

// New creates a Redis store. It does not dial until the first operation.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis store requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis store: invalid URL: %w", err)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Get implements kv.Store.
func (s *Store) Get(key string) (string, bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements kv.Store.
func (s *Store) Set(key, value string) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Remove implements kv.Store.
func (s *Store) Remove(key string) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Close implements kv.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.config.Prefix + k
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.config.Timeout)
}

var _ kv.Store = (*Store)(nil)
