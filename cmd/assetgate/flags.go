package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/shakelz/assetgate/internal/app"
	"github.com/shakelz/assetgate/internal/config"
	"github.com/shakelz/assetgate/internal/logging"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "config file path (default ~/.config/assetgate/config.toml)",
			EnvVars: []string{"ASSETGATE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "asset host prefix, e.g. https://cdn.example.com/de",
			EnvVars: []string{"ASSETGATE_BASE_URL"},
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "storage backend: file, sqlite, redis or memory",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "version check timeout",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			EnvVars: []string{"ASSETGATE_LOG_LEVEL"},
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "output format: json, yaml or table (default table on a terminal, json otherwise)",
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, cli.Exit(err.Error(), exitConfig)
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("storage") {
		cfg.Storage.Backend = c.String("storage")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, cli.Exit(err.Error(), exitConfig)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. An unknown level is a config error
// rather than a silent fallback.
func newLogger(cfg config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	return logging.New(os.Stderr, level), nil
}

// openApp loads config and wires the runtime. The caller must Close it.
func openApp(c *cli.Context) (*app.App, *logging.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("assetgate: %v", err), exitConfig)
	}
	return a, log, nil
}

func closeApp(a *app.App, log *logging.Logger) {
	if err := a.Close(); err != nil {
		log.Sugar().Warnf("close %s storage: %v", a.Config.Storage.Backend, err)
	}
	_ = log.Sync()
}
