package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shakelz/assetgate/internal/config"
	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/kv"
	kvredis "github.com/shakelz/assetgate/internal/kv/redis"
	"github.com/shakelz/assetgate/internal/kv/sqlite"
	"github.com/shakelz/assetgate/internal/logging"
	"github.com/shakelz/assetgate/internal/metrics"
	"github.com/shakelz/assetgate/internal/prefs"
	"github.com/shakelz/assetgate/internal/relay"
	relayredis "github.com/shakelz/assetgate/internal/relay/redis"
	"github.com/shakelz/assetgate/internal/relay/webhook"
	"github.com/shakelz/assetgate/internal/remote"
	"github.com/shakelz/assetgate/internal/ui"
)

// App is the wired assetgate runtime: storage, coordinator and relays.
type App struct {
	Config      config.Config
	Coordinator *coordinator.Coordinator

	storage kv.Store
	log     *logging.Logger
	detach  []func()
}

// New validates cfg and wires every component. Nothing touches the network
// until the coordinator is initialized or refreshed.
func New(cfg config.Config, log *logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storage, err := OpenStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	client, err := remote.NewClient(cfg.BaseURL, remote.WithTimeout(cfg.Timeout))
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("init version client: %w", err)
	}

	coord, err := coordinator.New(coordinator.Options{
		BaseURL:    cfg.BaseURL,
		Fetcher:    client,
		Storage:    storage,
		StorageKey: cfg.Storage.Key,
		DefaultTag: cfg.Storage.DefaultTag,
		Timeout:    cfg.Timeout,
		Logger:     log,
		Metrics:    metrics.NewCollector(),
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	a := &App{Config: cfg, Coordinator: coord, storage: storage, log: log}
	if err := a.attachRelays(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// OpenStorage builds the kv.Store for the configured backend.
func OpenStorage(s config.Storage) (kv.Store, error) {
	switch s.Backend {
	case config.BackendMemory:
		return kv.NewMemory(nil), nil
	case config.BackendSQLite:
		return sqlite.New(s.ResolvedPath())
	case config.BackendRedis:
		return kvredis.New(kvredis.Config{URL: s.URL, Prefix: s.Prefix})
	case config.BackendFile, "":
		return kv.NewFile(s.ResolvedPath())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func (a *App) attachRelays() error {
	if a.Config.Webhook.URL != "" {
		r, err := webhook.New(webhook.Config{
			URL:     a.Config.Webhook.URL,
			Headers: a.Config.Webhook.Headers,
			Retries: a.Config.Webhook.Retries,
		})
		if err != nil {
			return fmt.Errorf("init webhook relay: %w", err)
		}
		a.detach = append(a.detach, relay.Attach(a.Coordinator, r, "webhook", a.log, 0))
	}
	if a.Config.Redis.URL != "" {
		r, err := relayredis.New(relayredis.Config{
			URL:     a.Config.Redis.URL,
			Channel: a.Config.Redis.Channel,
			Retries: a.Config.Redis.Retries,
		})
		if err != nil {
			return fmt.Errorf("init redis relay: %w", err)
		}
		a.detach = append(a.detach, relay.Attach(a.Coordinator, r, "redis", a.log, 0))
	}
	return nil
}

// Close stops background reconciliation, flushes relays and releases
// storage.
func (a *App) Close() error {
	a.Coordinator.Close()
	for _, d := range a.detach {
		d()
	}
	a.detach = nil
	if a.storage == nil {
		return nil
	}
	err := a.storage.Close()
	a.storage = nil
	return err
}

// Options configure Run.
type Options struct {
	Config config.Config
	Logger *logging.Logger
	// PrefsPath overrides where the watch view remembers its theme.
	PrefsPath string
}

// Run boots the watch TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	a, err := New(opts.Config, opts.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			opts.Logger.Warn("close storage failed", map[string]any{"error": cerr})
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Coordinator.Initialize()
	polling := StartPoller(ctx, a.Coordinator, a.Config.PollInterval, opts.Logger)

	theme := a.Config.Theme
	if theme == "" {
		theme = prefs.Load(opts.PrefsPath).Theme
	}
	err = ui.Run(ctx, ui.RunOptions{
		Coordinator: a.Coordinator,
		ThemeName:   theme,
		PollEvery:   a.Config.PollInterval,
		OnThemeChange: func(name string) {
			if err := prefs.Save(opts.PrefsPath, prefs.Prefs{Theme: name}); err != nil {
				opts.Logger.Warn("save prefs failed", map[string]any{"error": err})
			}
		},
	})
	cancel()
	<-polling
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
