package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/logging"
	"github.com/shakelz/assetgate/internal/notify"
)

type fakeSubscriber struct {
	notifier notify.Notifier[coordinator.Event]
}

func (f *fakeSubscriber) OnVersionChange(h func(coordinator.Event)) func() {
	return f.notifier.Subscribe(h)
}

func (f *fakeSubscriber) BaseURL() string { return "https://cdn.example.com/de" }

type recordingRelay struct {
	mu     sync.Mutex
	events []*Event
	err    error
	block  chan struct{}
	closed atomic.Bool
}

func (r *recordingRelay) Publish(ctx context.Context, ev *Event) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return r.err
}

func (r *recordingRelay) Close() error {
	r.closed.Store(true)
	return nil
}

func (r *recordingRelay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestAttach_ForwardsEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingRelay{}
	detach := Attach(sub, rec, "test", nil, time.Second)

	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sub.notifier.Publish(coordinator.Event{Old: "v2", New: "v5", Source: coordinator.SourceRemote, At: at})
	detach()

	if rec.count() != 1 {
		t.Fatalf("published %d events, want 1", rec.count())
	}
	got := rec.events[0]
	want := Event{
		EventType:  EventType,
		OldVersion: "v2",
		NewVersion: "v5",
		Source:     "remote",
		Timestamp:  "2026-10-19T12:00:00Z",
		BaseURL:    "https://cdn.example.com/de",
	}
	if *got != want {
		t.Fatalf("event = %+v, want %+v", *got, want)
	}
	if !rec.closed.Load() {
		t.Fatal("detach did not close the relay")
	}
}

func TestAttach_DoesNotBlockPublisher(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingRelay{block: make(chan struct{})}
	detach := Attach(sub, rec, "slow", nil, time.Second)

	done := make(chan struct{})
	go func() {
		sub.notifier.Publish(coordinator.Event{Old: "v1", New: "v2"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow relay")
	}

	close(rec.block)
	detach()
	if rec.count() != 1 {
		t.Fatalf("published %d events, want 1", rec.count())
	}
}

func TestAttach_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sub := &fakeSubscriber{}
	rec := &recordingRelay{err: errors.New("downstream unavailable")}
	detach := Attach(sub, rec, "broken", logging.FromZap(zap.New(core)), time.Second)

	sub.notifier.Publish(coordinator.Event{Old: "v1", New: "v2"})
	detach()

	entries := logs.FilterMessage("relay publish failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if entries[0].ContextMap()["relay"] != "broken" {
		t.Fatalf("log fields = %v", entries[0].ContextMap())
	}
}

func TestAttach_DetachStopsForwarding(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingRelay{}
	detach := Attach(sub, rec, "test", nil, time.Second)
	detach()
	detach()

	sub.notifier.Publish(coordinator.Event{Old: "v1", New: "v2"})
	if rec.count() != 0 {
		t.Fatal("event forwarded after detach")
	}
	if sub.notifier.Len() != 0 {
		t.Fatal("subscription left behind")
	}
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after failure", func(t *testing.T) {
		calls := 0
		err := Retry(t.Context(), "test", 2, nil, func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil || calls != 2 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("stop is not retried", func(t *testing.T) {
		fatal := errors.New("fatal")
		calls := 0
		err := Retry(t.Context(), "test", 3, func(err error) bool { return errors.Is(err, fatal) }, func(context.Context) error {
			calls++
			return fatal
		})
		if !errors.Is(err, fatal) || calls != 1 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := Retry(ctx, "test", 3, nil, func(context.Context) error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want canceled", err)
		}
	})
}
