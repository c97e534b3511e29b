package app

import (
	"context"
	"time"

	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/logging"
)

const maxBackoff = 30 * time.Second

// Refresher runs one reconciliation cycle.
type Refresher interface {
	ForceRefresh(ctx context.Context) coordinator.Result
}

// StartPoller launches a background goroutine that reconciles at a fixed
// cadence, backing off exponentially while checks fail. The first check
// runs after one interval. The returned channel closes when ctx is done
// and the goroutine has exited. A non-positive interval disables polling.
func StartPoller(ctx context.Context, r Refresher, interval time.Duration, log *logging.Logger) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		close(done)
		return done
	}
	log = log.Named("poller")

	go func() {
		defer close(done)
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			res := r.ForceRefresh(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case res.Err != nil:
				failures++
			default:
				failures = 0
			}

			wait := calculateBackoff(failures, interval)
			if failures > 0 {
				log.Debug("version check failed, backing off", map[string]any{
					"failures": failures,
					"wait":     wait.String(),
				})
			}
			timer.Reset(wait)
		}
	}()
	return done
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff or base when base is larger.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= limit {
			return limit
		}
	}
	return wait
}
