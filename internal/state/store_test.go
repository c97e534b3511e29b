package state

import (
	"errors"
	"testing"
	"time"

	"github.com/shakelz/assetgate/internal/kv"
	"github.com/shakelz/assetgate/internal/metrics"
)

// failingKV fails every operation.
type failingKV struct{ err error }

func (f failingKV) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Set(string, string) error         { return f.err }
func (f failingKV) Remove(string) error              { return f.err }
func (f failingKV) Close() error                     { return nil }

func TestLoad_EmptyStoreReturnsDefault(t *testing.T) {
	s := NewStore(kv.NewMemory(nil), Options{})
	if got, _ := s.Load(); got != DefaultTag {
		t.Fatalf("Load = %q, want %q", got, DefaultTag)
	}
	if s.Current() != DefaultTag {
		t.Fatalf("Current = %q, want %q", s.Current(), DefaultTag)
	}
}

func TestLoad_ReadsPersistedTag(t *testing.T) {
	s := NewStore(kv.NewMemory(map[string]string{DefaultKey: " v4 "}), Options{})
	if got, _ := s.Load(); got != "v4" {
		t.Fatalf("Load = %q, want v4", got)
	}
}

func TestLoad_BlankValueReturnsDefault(t *testing.T) {
	s := NewStore(kv.NewMemory(map[string]string{DefaultKey: "   "}), Options{})
	if got, _ := s.Load(); got != DefaultTag {
		t.Fatalf("Load = %q, want %q", got, DefaultTag)
	}
}

func TestLoad_StorageErrorReturnsDefault(t *testing.T) {
	m := metrics.NewCollector()
	s := NewStore(failingKV{err: errors.New("disk on fire")}, Options{Metrics: m})
	got, err := s.Load()
	if got != DefaultTag {
		t.Fatalf("Load = %q, want %q", got, DefaultTag)
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "load" || se.Key != DefaultKey {
		t.Fatalf("Load err = %v, want StorageError for load of %s", err, DefaultKey)
	}
	if m.Snapshot().StorageFailures != 1 {
		t.Fatalf("StorageFailures = %d, want 1", m.Snapshot().StorageFailures)
	}
	if !errors.As(s.Snapshot().LastError, &se) {
		t.Fatalf("Snapshot.LastError = %v, want StorageError", s.Snapshot().LastError)
	}
	if s.Snapshot().ConsecutiveFailures != 0 {
		t.Fatal("a storage failure must not count as a failed check")
	}
}

func TestLoad_NilBackend(t *testing.T) {
	s := NewStore(nil, Options{DefaultTag: "v0"})
	if got, _ := s.Load(); got != "v0" {
		t.Fatalf("Load = %q, want v0", got)
	}
	if err := s.Persist("v2"); err != nil {
		t.Fatalf("Persist with nil backend = %v", err)
	}
}

func TestPersist_FailureKeepsMemory(t *testing.T) {
	m := metrics.NewCollector()
	s := NewStore(failingKV{err: errors.New("read-only")}, Options{Metrics: m})
	s.Swap("v5")

	if err := s.Persist("v5"); err == nil {
		t.Fatal("expected persist error")
	}
	if s.Current() != "v5" {
		t.Fatalf("Current = %q, want v5 after failed persist", s.Current())
	}
	if m.Snapshot().PersistFailures != 1 {
		t.Fatalf("PersistFailures = %d, want 1", m.Snapshot().PersistFailures)
	}
}

func TestSwap_ReportsChange(t *testing.T) {
	s := NewStore(kv.NewMemory(nil), Options{})
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	prev, changed := s.Swap("v1")
	if changed || prev != "v1" {
		t.Fatalf("Swap(same) = %q %v, want v1 false", prev, changed)
	}
	if !s.Snapshot().LastChanged.IsZero() {
		t.Fatal("LastChanged set on no-op swap")
	}

	prev, changed = s.Swap("v2")
	if !changed || prev != "v1" {
		t.Fatalf("Swap(v2) = %q %v, want v1 true", prev, changed)
	}
	if got := s.Snapshot().LastChanged; !got.Equal(fixed) {
		t.Fatalf("LastChanged = %v, want %v", got, fixed)
	}
}

func TestClear_RemovesAndResets(t *testing.T) {
	backend := kv.NewMemory(map[string]string{DefaultKey: "v3"})
	s := NewStore(backend, Options{})
	s.Load()

	prev, changed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if prev != "v3" || !changed {
		t.Fatalf("Clear = %q %v, want v3 true", prev, changed)
	}
	if s.Current() != DefaultTag {
		t.Fatalf("Current = %q, want %q", s.Current(), DefaultTag)
	}
	if _, ok, _ := backend.Get(DefaultKey); ok {
		t.Fatal("persisted entry still present")
	}
}

func TestClear_StorageFailureStillResetsMemory(t *testing.T) {
	s := NewStore(failingKV{err: errors.New("nope")}, Options{})
	s.Swap("v8")

	_, changed, err := s.Clear()
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	if !changed || s.Current() != DefaultTag {
		t.Fatalf("Current = %q changed=%v, want %q true", s.Current(), changed, DefaultTag)
	}
}

func TestRecordCheck_TracksFailures(t *testing.T) {
	s := NewStore(kv.NewMemory(nil), Options{})
	s.Swap("v2")

	s.RecordCheck(errors.New("timeout"))
	s.RecordCheck(errors.New("timeout"))
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("failures = %d offline=%v, want 2 true", snap.ConsecutiveFailures, snap.IsOffline())
	}
	if snap.Current != "v2" {
		t.Fatalf("Current = %q, want v2 kept across failures", snap.Current)
	}
	if snap.LastError == nil || snap.LastChecked.IsZero() {
		t.Fatal("LastError/LastChecked not recorded")
	}

	s.RecordCheck(nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil || snap.IsOffline() {
		t.Fatalf("success did not reset failures: %+v", snap)
	}
}

func TestInitializedFlag(t *testing.T) {
	s := NewStore(nil, Options{})
	if s.Initialized() {
		t.Fatal("new store should not be initialized")
	}
	s.SetInitialized(true)
	if !s.Snapshot().Initialized {
		t.Fatal("snapshot should report initialized")
	}
}
