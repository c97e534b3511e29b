// Package config loads the assetgate configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/assetgate/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// Command-line flags are applied on top of the loaded Config by the caller,
// followed by Validate.
//
// # Default Values
//
//   - timeout: 10s
//   - poll_interval: disabled
//   - log_level: info
//   - storage.backend: file at ~/.local/state/assetgate/state.toml
//     (sqlite defaults to ~/.local/state/assetgate/state.db)
//   - storage.key: asset_version, storage.default_tag: v1
//   - relay retries: 3
//
// base_url has no default; Validate rejects an empty one.
//
// # TOML Format
//
//	base_url = "https://cdn.example.com/de"
//	timeout = "10s"
//	poll_interval = "5m"
//	log_level = "info"
//	theme = "nord"
//
//	[storage]
//	backend = "redis"                      # file, sqlite, redis or memory
//	url = "${REDIS_URL:-redis://localhost:6379/0}"
//
//	[relay.webhook]
//	url = "https://hooks.example.com/assets"
//	headers = { Authorization = "Bearer ${HOOK_TOKEN}" }
//
//	[relay.redis]
//	url = "redis://localhost:6379/0"
//	channel = "assetgate:version_changed"
//
// # Environment Expansion
//
// ${VAR} and ${VAR:-default} are expanded across the whole file before it
// is parsed, so secrets can stay out of the file. Unset variables without a
// default become empty strings.
//
// # Path Expansion
//
// Tilde paths are expanded to the home directory and relative paths are
// made absolute, both for the config file location and storage.path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors and unparsable durations. A missing
// file is NOT an error.
package config
