// Package relay forwards version-change events to downstream systems.
//
// A Relay is attached to a coordinator with Attach. Each change is
// published on its own goroutine with a deadline, so a slow or unreachable
// downstream never delays the coordinator or other subscribers. Failures
// are logged and dropped.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/logging"
)

// EventType is the event_type of every relayed payload.
const EventType = "version_changed"

// DefaultPublishTimeout bounds one relayed publish, retries included.
const DefaultPublishTimeout = 30 * time.Second

// Event is the JSON payload sent downstream.
type Event struct {
	EventType  string `json:"event_type"` // always "version_changed"
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
	Source     string `json:"source"`
	Timestamp  string `json:"timestamp"` // RFC 3339
	BaseURL    string `json:"base_url,omitempty"`
}

// FromChange builds the payload for a coordinator event.
func FromChange(ev coordinator.Event, baseURL string) *Event {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return &Event{
		EventType:  EventType,
		OldVersion: ev.Old,
		NewVersion: ev.New,
		Source:     string(ev.Source),
		Timestamp:  at.UTC().Format(time.RFC3339),
		BaseURL:    baseURL,
	}
}

// Relay publishes version-change events to a downstream system.
type Relay interface {
	// Publish sends one event. Must respect context cancellation.
	Publish(ctx context.Context, event *Event) error
	// Close releases relay resources.
	Close() error
}

// Subscriber is the part of the coordinator a relay attaches to.
type Subscriber interface {
	OnVersionChange(handler func(coordinator.Event)) (unsubscribe func())
	BaseURL() string
}

// Attach subscribes r to version changes on sub. The returned detach
// function unsubscribes, waits for in-flight publishes and closes r.
func Attach(sub Subscriber, r Relay, name string, log *logging.Logger, timeout time.Duration) (detach func()) {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	log = log.Named("relay").With(map[string]any{"relay": name})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var mu sync.Mutex
	detached := false

	unsubscribe := sub.OnVersionChange(func(ev coordinator.Event) {
		mu.Lock()
		defer mu.Unlock()
		if detached {
			return
		}
		payload := FromChange(ev, sub.BaseURL())
		wg.Add(1)
		go func() {
			defer wg.Done()
			pubCtx, pubCancel := context.WithTimeout(ctx, timeout)
			defer pubCancel()
			if err := r.Publish(pubCtx, payload); err != nil {
				log.Warn("relay publish failed", map[string]any{
					"new_version": payload.NewVersion,
					"error":       err,
				})
				return
			}
			log.Debug("relay published", map[string]any{"new_version": payload.NewVersion})
		}()
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			detached = true
			mu.Unlock()
			wg.Wait()
			cancel()
			if err := r.Close(); err != nil {
				log.Warn("relay close failed", map[string]any{"error": err})
			}
		})
	}
}

// Retry runs op up to 1+retries times with exponential backoff between
// attempts (500ms, 1s, 2s, ...). stop reports errors that must not be
// retried. name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, stop func(error) bool, op func(context.Context) error) error {
	var lastErr error
	attempts := 1 + retries

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if stop != nil && stop(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
