package state

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shakelz/assetgate/internal/kv"
	"github.com/shakelz/assetgate/internal/logging"
	"github.com/shakelz/assetgate/internal/metrics"
)

const (
	// DefaultKey is the PersistentKV key holding the tag.
	DefaultKey = "asset_version"
	// DefaultTag is served on first run or when storage is unreadable.
	DefaultTag = "v1"
)

// Snapshot represents the version state visible to readers.
type Snapshot struct {
	Current             string
	Initialized         bool
	LastChecked         time.Time
	LastChanged         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed checks
}

// IsOffline returns true when the version source has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Options configure a Store.
type Options struct {
	Key        string // empty uses DefaultKey
	DefaultTag string // empty uses DefaultTag
	Logger     *logging.Logger
	Metrics    *metrics.Collector
}

// Store holds the in-memory tag and mediates every read and write against
// the backing kv.Store. Storage failures are logged and absorbed.
type Store struct {
	backend    kv.Store
	key        string
	defaultTag string
	log        *logging.Logger
	metrics    *metrics.Collector
	now        func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore returns a Store over backend. The in-memory tag starts at the
// default until Load is called. A nil backend behaves as empty storage.
func NewStore(backend kv.Store, opts Options) *Store {
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultKey
	}
	def := strings.TrimSpace(opts.DefaultTag)
	if def == "" {
		def = DefaultTag
	}
	return &Store{
		backend:    backend,
		key:        key,
		defaultTag: def,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		now:        time.Now,
		snapshot:   Snapshot{Current: def},
	}
}

// StorageError is a failed PersistentKV operation. It is recorded on the
// snapshot and never stops the tag from being served.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Load reads the persisted tag into memory and returns it. Absent, blank
// or unreadable values yield the default tag. A read failure is recorded
// as the snapshot's LastError and returned alongside the default.
func (s *Store) Load() (string, error) {
	tag, err := s.read()

	s.mu.Lock()
	s.snapshot.Current = tag
	if err != nil {
		s.snapshot.LastError = err
	}
	s.mu.Unlock()
	return tag, err
}

func (s *Store) read() (string, error) {
	if s.backend == nil {
		return s.defaultTag, nil
	}
	value, ok, err := s.backend.Get(s.key)
	if err != nil {
		s.metrics.IncStorageFailure()
		s.log.Warn("storage read failed, using default tag", map[string]any{
			"key":     s.key,
			"default": s.defaultTag,
			"error":   err,
		})
		return s.defaultTag, &StorageError{Op: "load", Key: s.key, Err: err}
	}
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return s.defaultTag, nil
	}
	return value, nil
}

// Persist writes tag through to storage. A failure leaves the in-memory
// value alone and is returned for observation only.
func (s *Store) Persist(tag string) error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Set(s.key, tag); err != nil {
		s.metrics.IncPersistFailure()
		s.log.Warn("storage write failed", map[string]any{
			"key":   s.key,
			"tag":   tag,
			"error": err,
		})
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}

// Current returns the in-memory tag. It never touches storage.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Current
}

// Swap replaces the in-memory tag and reports the previous value and
// whether it differed. Callers persist separately.
func (s *Store) Swap(tag string) (prev string, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev = s.snapshot.Current
	if prev == tag {
		return prev, false
	}
	s.snapshot.Current = tag
	s.snapshot.LastChanged = s.now()
	return prev, true
}

// Clear removes the persisted entry and resets memory to the default tag.
// The in-memory reset happens even if the removal fails.
func (s *Store) Clear() (prev string, changed bool, err error) {
	if s.backend != nil {
		if rmErr := s.backend.Remove(s.key); rmErr != nil {
			s.metrics.IncPersistFailure()
			s.log.Warn("storage remove failed", map[string]any{"key": s.key, "error": rmErr})
			err = fmt.Errorf("remove %s: %w", s.key, rmErr)
		}
	}
	prev, changed = s.Swap(s.defaultTag)
	return prev, changed, err
}

// RecordCheck notes the outcome of a remote check. On error the current tag
// is kept and the failure counted; success resets the failure streak.
func (s *Store) RecordCheck(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastChecked = s.now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetInitialized flips the ready flag.
func (s *Store) SetInitialized(v bool) {
	s.mu.Lock()
	s.snapshot.Initialized = v
	s.mu.Unlock()
}

// Initialized reports the ready flag.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Initialized
}

// DefaultTag returns the tag served when nothing is persisted.
func (s *Store) DefaultTag() string { return s.defaultTag }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
