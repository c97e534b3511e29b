// Package redis relays version changes as JSON messages on a Redis
// pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shakelz/assetgate/internal/relay"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "assetgate:version_changed"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the Redis relay.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel defaults to DefaultChannel.
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
}

// Relay publishes version-change events via Redis PUBLISH.
type Relay struct {
	config Config
	client *goredis.Client
}

// New creates a Redis relay. Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Relay, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis relay requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis relay: invalid URL: %w", err)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	return &Relay{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Channel returns the channel events are published on.
func (r *Relay) Channel() string { return r.config.Channel }

// Publish sends the event as JSON to the configured channel.
func (r *Relay) Publish(ctx context.Context, event *relay.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	return relay.Retry(ctx, "redis", r.config.Retries, nil, func(ctx context.Context) error {
		publishCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
		return r.client.Publish(publishCtx, r.config.Channel, body).Err()
	})
}

// Close releases the connection pool.
func (r *Relay) Close() error {
	return r.client.Close()
}

var _ relay.Relay = (*Relay)(nil)
