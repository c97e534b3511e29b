// Package metrics counts reconciliation activity for one coordinator.
//
// Collector is a leaf package with no internal dependencies. All increment
// methods are nil-receiver safe so callers never guard them.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the counters.
type Snapshot struct {
	FetchesStarted   int64            `json:"fetches_started" yaml:"fetches_started"`
	FetchesSucceeded int64            `json:"fetches_succeeded" yaml:"fetches_succeeded"`
	FetchesFailed    int64            `json:"fetches_failed" yaml:"fetches_failed"`
	FailuresByKind   map[string]int64 `json:"failures_by_kind" yaml:"failures_by_kind"`

	ChangesApplied   int64 `json:"changes_applied" yaml:"changes_applied"`
	NoopChecks       int64 `json:"noop_checks" yaml:"noop_checks"`
	CoalescedRefresh int64 `json:"coalesced_refresh" yaml:"coalesced_refresh"`

	PersistFailures int64 `json:"persist_failures" yaml:"persist_failures"`
	StorageFailures int64 `json:"storage_failures" yaml:"storage_failures"`
	HandlerPanics   int64 `json:"handler_panics" yaml:"handler_panics"`
}

// Collector accumulates counters. The zero value is ready to use.
type Collector struct {
	mu sync.Mutex

	fetchesStarted   int64
	fetchesSucceeded int64
	fetchesFailed    int64
	failuresByKind   map[string]int64

	changesApplied   int64
	noopChecks       int64
	coalescedRefresh int64

	persistFailures int64
	storageFailures int64
	handlerPanics   int64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{failuresByKind: make(map[string]int64)}
}

// IncFetchStarted records the start of a network fetch.
func (c *Collector) IncFetchStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchesStarted++
	c.mu.Unlock()
}

// IncFetchSucceeded records a fetch that returned a usable tag.
func (c *Collector) IncFetchSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchesSucceeded++
	c.mu.Unlock()
}

// IncFetchFailed records a failed fetch under its failure kind.
func (c *Collector) IncFetchFailed(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchesFailed++
	if c.failuresByKind == nil {
		c.failuresByKind = make(map[string]int64)
	}
	c.failuresByKind[kind]++
}

// IncChangeApplied records a version transition.
func (c *Collector) IncChangeApplied() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.changesApplied++
	c.mu.Unlock()
}

// IncNoop records a reconciliation that found the same tag.
func (c *Collector) IncNoop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.noopChecks++
	c.mu.Unlock()
}

// IncCoalesced records a refresh request that joined an in-flight cycle.
func (c *Collector) IncCoalesced() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.coalescedRefresh++
	c.mu.Unlock()
}

// IncPersistFailure records a failed write-through.
func (c *Collector) IncPersistFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.persistFailures++
	c.mu.Unlock()
}

// IncStorageFailure records a failed storage read.
func (c *Collector) IncStorageFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storageFailures++
	c.mu.Unlock()
}

// IncHandlerPanic records a recovered subscriber panic.
func (c *Collector) IncHandlerPanic() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.handlerPanics++
	c.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{FailuresByKind: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}
	return Snapshot{
		FetchesStarted:   c.fetchesStarted,
		FetchesSucceeded: c.fetchesSucceeded,
		FetchesFailed:    c.fetchesFailed,
		FailuresByKind:   byKind,
		ChangesApplied:   c.changesApplied,
		NoopChecks:       c.noopChecks,
		CoalescedRefresh: c.coalescedRefresh,
		PersistFailures:  c.persistFailures,
		StorageFailures:  c.storageFailures,
		HandlerPanics:    c.handlerPanics,
	}
}
