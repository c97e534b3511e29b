package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/shakelz/assetgate/internal/logging"
	"github.com/shakelz/assetgate/internal/state"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const (
	defaultConfigPath  = "~/.config/assetgate/config.toml"
	defaultFilePath    = "~/.local/state/assetgate/state.toml"
	defaultSQLitePath  = "~/.local/state/assetgate/state.db"
	defaultTimeout     = 10 * time.Second
	defaultLogLevel    = "info"
	defaultRelayRetry  = 3
	defaultRedisPrefix = "assetgate:"
)

// Config is the resolved assetgate configuration.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration // zero disables periodic checks
	LogLevel     string
	Theme        string
	Storage      Storage
	Webhook      Webhook
	Redis        RedisRelay
}

// Storage selects and configures the PersistentKV backend.
type Storage struct {
	Backend    string
	Path       string // file and sqlite; empty uses the backend default
	URL        string // redis
	Prefix     string // redis key prefix
	Key        string
	DefaultTag string
}

// Webhook configures the optional HTTP relay. Empty URL disables it.
type Webhook struct {
	URL     string
	Headers map[string]string
	Retries int
}

// RedisRelay configures the optional pub/sub relay. Empty URL disables it.
type RedisRelay struct {
	URL     string
	Channel string
	Retries int
}

type rawConfig struct {
	BaseURL      string `toml:"base_url"`
	Timeout      string `toml:"timeout"`
	PollInterval string `toml:"poll_interval"`
	LogLevel     string `toml:"log_level"`
	Theme        string `toml:"theme"`
	Storage      struct {
		Backend    string `toml:"backend"`
		Path       string `toml:"path"`
		URL        string `toml:"url"`
		Prefix     string `toml:"prefix"`
		Key        string `toml:"key"`
		DefaultTag string `toml:"default_tag"`
	} `toml:"storage"`
	Relay struct {
		Webhook struct {
			URL     string            `toml:"url"`
			Headers map[string]string `toml:"headers"`
			Retries *int              `toml:"retries"`
		} `toml:"webhook"`
		Redis struct {
			URL     string `toml:"url"`
			Channel string `toml:"channel"`
			Retries *int   `toml:"retries"`
		} `toml:"redis"`
	} `toml:"relay"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Timeout:  defaultTimeout,
		LogLevel: defaultLogLevel,
		Storage: Storage{
			Backend:    BackendFile,
			Prefix:     defaultRedisPrefix,
			Key:        state.DefaultKey,
			DefaultTag: state.DefaultTag,
		},
		Webhook: Webhook{Retries: defaultRelayRetry},
		Redis:   RedisRelay{Retries: defaultRelayRetry},
	}
}

// Load locates and parses the config file, falling back to defaults when
// it is missing. ${VAR} and ${VAR:-default} references are expanded before
// parsing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal([]byte(ExpandEnv(string(data))), &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.apply(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw rawConfig) error {
	c.BaseURL = strings.TrimSpace(raw.BaseURL)
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = v
	}
	c.Theme = strings.TrimSpace(raw.Theme)

	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse poll_interval: %w", err)
		}
		c.PollInterval = d
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Storage.Backend)); v != "" {
		c.Storage.Backend = v
	}
	c.Storage.URL = strings.TrimSpace(raw.Storage.URL)
	if v := strings.TrimSpace(raw.Storage.Prefix); v != "" {
		c.Storage.Prefix = v
	}
	if v := strings.TrimSpace(raw.Storage.Key); v != "" {
		c.Storage.Key = v
	}
	if v := strings.TrimSpace(raw.Storage.DefaultTag); v != "" {
		c.Storage.DefaultTag = v
	}
	c.Storage.Path = strings.TrimSpace(raw.Storage.Path)

	c.Webhook.URL = strings.TrimSpace(raw.Relay.Webhook.URL)
	c.Webhook.Headers = raw.Relay.Webhook.Headers
	if raw.Relay.Webhook.Retries != nil {
		c.Webhook.Retries = *raw.Relay.Webhook.Retries
	}
	c.Redis.URL = strings.TrimSpace(raw.Relay.Redis.URL)
	c.Redis.Channel = strings.TrimSpace(raw.Relay.Redis.Channel)
	if raw.Relay.Redis.Retries != nil {
		c.Redis.Retries = *raw.Relay.Redis.Retries
	}
	return nil
}

// ResolvedPath returns the expanded storage path for file and sqlite
// backends, falling back to the backend's default location.
func (s Storage) ResolvedPath() string {
	if s.Path != "" {
		return mustExpand(s.Path)
	}
	if s.Backend == BackendSQLite {
		return mustExpand(defaultSQLitePath)
	}
	return mustExpand(defaultFilePath)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required (set it in the config file or pass --base-url)")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme %q (must be http or https)", u.Scheme)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative, got %s", c.PollInterval)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Storage.URL == "" {
			return errors.New("storage.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid storage backend %q (must be file, sqlite, redis, or memory)", c.Storage.Backend)
	}
	if c.Webhook.Retries < 0 || c.Redis.Retries < 0 {
		return errors.New("relay retries must be >= 0")
	}
	return nil
}

// DefaultPath returns the expanded default config file location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
