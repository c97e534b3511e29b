// Package state holds the version tag the application is currently serving.
//
// # Overview
//
// Store is the single in-memory source of truth for the asset version. It
// is written by the coordinator (after a remote check, a manual override or
// a cache clear) and read by everything that builds asset URLs.
//
// # Storage Mediation
//
// Store is the only component that talks to kv.Store:
//
//	Load()     kv.Get → memory   (absent/blank/unreadable → "v1"; read error → LastError)
//	Persist()  memory → kv.Set   (best effort, never rolls back memory)
//	Clear()    kv.Remove + reset memory to "v1"
//
// Current() reads memory only and never blocks on storage.
//
// # Snapshot Semantics
//
// Like a poll store, a failed check keeps the last good tag and only
// records the error:
//
//	store.RecordCheck(nil)  → LastError = nil, ConsecutiveFailures = 0
//	store.RecordCheck(err)  → Current unchanged, LastError = err, ConsecutiveFailures++
//
// Snapshot returns a copy, so readers never observe partial updates.
package state
