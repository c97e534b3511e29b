package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shakelz/assetgate/internal/kv"
	"github.com/shakelz/assetgate/internal/logging"
	"github.com/shakelz/assetgate/internal/metrics"
	"github.com/shakelz/assetgate/internal/notify"
	"github.com/shakelz/assetgate/internal/remote"
	"github.com/shakelz/assetgate/internal/resolve"
	"github.com/shakelz/assetgate/internal/state"
)

const reconcileKey = "reconcile"

// Options configure a Coordinator.
type Options struct {
	// BaseURL is the asset host prefix used by ImageURL.
	BaseURL string
	// Fetcher retrieves the authoritative tag (required).
	Fetcher remote.VersionFetcher
	// Storage persists the tag across restarts. Nil means memory only.
	Storage kv.Store
	// StorageKey overrides state.DefaultKey.
	StorageKey string
	// DefaultTag overrides state.DefaultTag.
	DefaultTag string
	// Timeout bounds each fetch; zero uses remote.DefaultTimeout.
	Timeout time.Duration
	// Logger receives structured logs; nil discards them.
	Logger *logging.Logger
	// Metrics collects counters; nil allocates a private collector.
	Metrics *metrics.Collector
	// OnFailure observes every recovered failure.
	OnFailure func(Failure)
}

// Coordinator owns the version state for one process: it loads the
// persisted tag, reconciles it against the remote source in the
// background and tells subscribers about transitions.
type Coordinator struct {
	baseURL   string
	fetcher   remote.VersionFetcher
	store     *state.Store
	notifier  *notify.Notifier[Event]
	timeout   time.Duration
	log       *logging.Logger
	metrics   *metrics.Collector
	onFailure func(Failure)
	now       func() time.Time

	initMu  sync.Mutex // serializes Initialize and Reload
	applyMu sync.Mutex // keeps memory and storage writes in the same order
	group   singleflight.Group
	flying  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	lifeMu sync.Mutex // guards closed against wg.Add
	wg     sync.WaitGroup
	closed bool
}

// New builds a Coordinator. It does not touch storage or the network until
// Initialize is called.
func New(opts Options) (*Coordinator, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("coordinator requires a version fetcher")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = remote.DefaultTimeout
	}
	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewCollector()
	}
	log := opts.Logger.Named("coordinator")

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		baseURL: strings.TrimSpace(opts.BaseURL),
		fetcher: opts.Fetcher,
		store: state.NewStore(opts.Storage, state.Options{
			Key:        opts.StorageKey,
			DefaultTag: opts.DefaultTag,
			Logger:     opts.Logger.Named("state"),
			Metrics:    collector,
		}),
		timeout:   timeout,
		log:       log,
		metrics:   collector,
		onFailure: opts.OnFailure,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	c.notifier = notify.New[Event](c.handlerPanicked)
	return c, nil
}

// Initialize loads the persisted tag, marks the coordinator ready and
// starts one background reconciliation. It returns without waiting on the
// network. Calling it again once ready is a no-op.
func (c *Coordinator) Initialize() {
	if c.Load() {
		c.reconcileAsync()
	}
}

// Load reads the persisted tag and marks the coordinator ready without
// contacting the version source. It reports whether this call did the
// loading; once ready it is a no-op.
func (c *Coordinator) Load() bool {
	c.initMu.Lock()
	if c.store.Initialized() {
		c.initMu.Unlock()
		return false
	}
	c.applyMu.Lock()
	tag, err := c.store.Load()
	c.applyMu.Unlock()
	c.store.SetInitialized(true)
	c.initMu.Unlock()

	if err != nil {
		c.report(Failure{Kind: FailureStorage, Op: "load", Err: err})
	}
	c.log.Debug("initialized", map[string]any{"version": tag})
	return true
}

// Reload is a forced Initialize: readiness drops to false, the persisted
// tag is read again, readiness is restored and a reconciliation starts.
func (c *Coordinator) Reload() {
	c.initMu.Lock()
	c.store.SetInitialized(false)
	c.applyMu.Lock()
	prev := c.store.Current()
	tag, err := c.store.Load()
	c.applyMu.Unlock()
	c.store.SetInitialized(true)
	c.initMu.Unlock()

	if err != nil {
		c.report(Failure{Kind: FailureStorage, Op: "load", Err: err})
	}
	c.log.Info("reloaded", map[string]any{"version": tag})
	if tag != prev {
		c.publish(Event{Old: prev, New: tag, Source: SourceStorage, At: c.now()})
	}
	c.reconcileAsync()
}

// Ready reports whether the coordinator holds a loaded tag.
func (c *Coordinator) Ready() bool {
	return c.store.Initialized()
}

func (c *Coordinator) reconcileAsync() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.closed {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.ForceRefresh(c.ctx)
	}()
}

// ForceRefresh runs a reconciliation now, or joins the one already in
// flight. ctx bounds only how long this caller waits; the shared fetch is
// bounded by the configured timeout.
func (c *Coordinator) ForceRefresh(ctx context.Context) Result {
	if c.isClosed() {
		cur := c.store.Current()
		return Result{Previous: cur, Current: cur, Err: ErrClosed}
	}

	if c.flying.Load() {
		c.metrics.IncCoalesced()
	}
	ch := c.group.DoChan(reconcileKey, func() (any, error) {
		c.flying.Store(true)
		defer c.flying.Store(false)
		return c.reconcile(), nil
	})

	select {
	case res := <-ch:
		r := res.Val.(Result)
		r.Shared = res.Shared
		return r
	case <-ctx.Done():
		cur := c.store.Current()
		return Result{Previous: cur, Current: cur, Err: ctx.Err()}
	}
}

// reconcile is the Idle → Reconciling → Idle cycle. Only one runs at a time.
func (c *Coordinator) reconcile() Result {
	c.metrics.IncFetchStarted()
	before := c.store.Current()

	tag, err := c.fetcher.FetchVersion(c.ctx, c.timeout)
	if err == nil && strings.TrimSpace(tag) == "" {
		err = &remote.FetchError{Kind: remote.KindBadResponse, Err: ErrEmptyTag}
	}
	if err != nil {
		kind := FailureKindOf(err)
		c.store.RecordCheck(err)
		c.metrics.IncFetchFailed(string(kind))
		c.log.Warn("version check failed, keeping current tag", map[string]any{
			"version": before,
			"kind":    string(kind),
			"error":   err,
		})
		c.report(Failure{Kind: kind, Op: "fetch", Err: err})
		cur := c.store.Current()
		return Result{Previous: cur, Current: cur, Err: err}
	}

	c.metrics.IncFetchSucceeded()
	c.store.RecordCheck(nil)
	res, _ := c.apply(strings.TrimSpace(tag), SourceRemote)
	if !res.Changed {
		c.metrics.IncNoop()
		c.log.Debug("version unchanged", map[string]any{"version": res.Current})
	}
	return res
}

// apply swaps the in-memory tag, persists it and publishes the transition.
// The swap and the persist happen under applyMu so storage always ends up
// holding the last tag written to memory. The returned error is the persist
// failure, which never undoes the swap.
func (c *Coordinator) apply(tag string, source Source) (Result, error) {
	c.applyMu.Lock()
	prev, changed := c.store.Swap(tag)
	if !changed {
		c.applyMu.Unlock()
		return Result{Previous: prev, Current: tag}, nil
	}
	persistErr := c.store.Persist(tag)
	c.applyMu.Unlock()

	if persistErr != nil {
		c.report(Failure{Kind: FailureStorage, Op: "persist", Err: persistErr})
	}

	c.metrics.IncChangeApplied()
	c.log.Info("version changed", map[string]any{
		"old":    prev,
		"new":    tag,
		"source": string(source),
	})
	c.publish(Event{Old: prev, New: tag, Source: source, At: c.now()})
	return Result{Previous: prev, Current: tag, Changed: true}, persistErr
}

// SetVersionManually overrides the tag without consulting the remote
// source. The new tag is live even if persisting it fails; the persist
// error is still returned.
func (c *Coordinator) SetVersionManually(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ErrEmptyTag
	}
	_, err := c.apply(tag, SourceManual)
	return err
}

// ClearCache removes the persisted tag and falls back to the default.
func (c *Coordinator) ClearCache() error {
	c.applyMu.Lock()
	prev, changed, err := c.store.Clear()
	c.applyMu.Unlock()

	if err != nil {
		c.report(Failure{Kind: FailureStorage, Op: "clear", Err: err})
	}
	if changed {
		c.metrics.IncChangeApplied()
		c.log.Info("version reset", map[string]any{"old": prev, "new": c.store.DefaultTag()})
		c.publish(Event{Old: prev, New: c.store.DefaultTag(), Source: SourceReset, At: c.now()})
	}
	return err
}

// CurrentVersion returns the tag in use. It never blocks on I/O.
func (c *Coordinator) CurrentVersion() string {
	return c.store.Current()
}

// ImageURL resolves a logical asset name against the current tag. The
// optional extension defaults to jpg.
func (c *Coordinator) ImageURL(name string, ext ...string) string {
	e := ""
	if len(ext) > 0 {
		e = ext[0]
	}
	return resolve.Resolve(c.baseURL, c.store.Current(), name, e)
}

// OnVersionChange subscribes handler to transitions. Handlers run
// synchronously on the goroutine that applied the change, in subscription
// order. Call the returned function to unsubscribe.
func (c *Coordinator) OnVersionChange(handler func(Event)) (unsubscribe func()) {
	return c.notifier.Subscribe(handler)
}

// Snapshot returns the current version state.
func (c *Coordinator) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

// Metrics returns the reconciliation counters.
func (c *Coordinator) Metrics() metrics.Snapshot {
	return c.metrics.Snapshot()
}

// BaseURL returns the asset host prefix.
func (c *Coordinator) BaseURL() string { return c.baseURL }

// Close cancels background work and waits for it to finish. Reads keep
// working afterwards.
func (c *Coordinator) Close() {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return
	}
	c.closed = true
	c.lifeMu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) isClosed() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.closed
}

func (c *Coordinator) publish(ev Event) {
	c.notifier.Publish(ev)
}

func (c *Coordinator) handlerPanicked(recovered any) {
	c.metrics.IncHandlerPanic()
	c.log.Error("version change handler panicked", map[string]any{
		"error": &notify.PanicError{Value: recovered},
	})
}

func (c *Coordinator) report(f Failure) {
	if c.onFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("failure observer panicked", map[string]any{"error": &notify.PanicError{Value: r}})
		}
	}()
	c.onFailure(f)
}
