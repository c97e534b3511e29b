package coordinator

import (
	"errors"
	"time"

	"github.com/shakelz/assetgate/internal/remote"
)

// Source says what caused a version transition.
type Source string

const (
	SourceRemote  Source = "remote"  // reconciliation against the version source
	SourceManual  Source = "manual"  // SetVersionManually
	SourceReset   Source = "reset"   // ClearCache
	SourceStorage Source = "storage" // Reload picked up a different persisted tag
)

// Event describes one version transition. Old and New always differ.
type Event struct {
	Old    string    `json:"old_version" yaml:"old_version"`
	New    string    `json:"new_version" yaml:"new_version"`
	Source Source    `json:"source" yaml:"source"`
	At     time.Time `json:"at" yaml:"at"`
}

// Result is the outcome of one reconciliation as seen by a caller.
type Result struct {
	Previous string
	Current  string
	Changed  bool
	// Shared is true when the cycle served more than one caller.
	Shared bool
	// Err is the fetch failure, if any. Current equals Previous whenever Err
	// is set.
	Err error
}

// FailureKind labels the recoverable failure classes.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureNetwork     FailureKind = "network_error"
	FailureBadResponse FailureKind = "bad_response"
	FailureStorage     FailureKind = "storage_error"
)

// Failure is reported to Options.OnFailure. None of these reach callers of
// CurrentVersion or ImageURL.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

// ErrEmptyTag rejects blank manual overrides.
var ErrEmptyTag = errors.New("version tag must not be empty")

// ErrClosed is returned by refreshes after Close.
var ErrClosed = errors.New("coordinator closed")

// FailureKindOf classifies a fetch error. Errors that are not a
// *remote.FetchError count as network errors.
func FailureKindOf(err error) FailureKind {
	switch remote.KindOf(err) {
	case remote.KindTimeout:
		return FailureTimeout
	case remote.KindBadResponse:
		return FailureBadResponse
	default:
		return FailureNetwork
	}
}
