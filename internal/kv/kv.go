// Package kv defines the durable key/value boundary the version store
// persists through, plus in-process and file-backed implementations.
//
// Backends live in subpackages when they pull in a driver:
//
//   - kv.Memory: map guarded by a mutex; tests and --storage memory
//   - kv.File: TOML document on disk (default)
//   - kv/sqlite: modernc.org/sqlite table
//   - kv/redis: Redis strings under a key prefix
//
// Absence is reported through the ok return, never as an error. Errors mean
// the backend could not answer at all.
package kv

// Store is durable key to string storage that survives process restarts.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases backend resources.
	Close() error
}
