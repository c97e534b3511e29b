// Package app provides the orchestration layer for assetgate.
//
// # Overview
//
// This package wires configuration, storage, the version client, the
// coordinator and the relays together. It is the composition root shared
// by every CLI command; only the watch command also starts the poller and
// the TUI.
//
// # Data Flow
//
//	┌──────────────┐
//	│   New()      │ Validate config and wire components
//	└──────┬───────┘
//	       │
//	       ├─────> OpenStorage()        file, sqlite, redis or memory kv.Store
//	       ├─────> remote.NewClient()   GET {base_url}/version.json
//	       ├─────> coordinator.New()    state, single-flight, subscribers
//	       └─────> relay.Attach()       webhook / redis, when configured
//
//	Run() (watch):
//	┌─────────────────────────────────────────┐
//	│ coordinator.Initialize()  (non-blocking)│
//	│ StartPoller()  ForceRefresh on a timer  │
//	│ ui.Run()       blocks until quit        │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller is optional (poll_interval = 0 disables it). After each
// failed check the next wait doubles, capped at 30 seconds or the interval
// itself when that is longer. One success resets the wait.
//
// # Error Handling
//
// Fatal errors (returned from New or Run):
//   - Invalid configuration
//   - Storage that cannot be opened
//   - Relay configuration errors
//
// Recoverable errors (logged, the current tag keeps being served):
//   - Version check timeouts, network errors and bad responses
//   - Storage read/write failures after startup
//   - Relay delivery failures
//
// # Shutdown
//
// Close stops background reconciliation first, then waits for relays to
// flush in-flight events, then closes storage.
package app
