package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/shakelz/assetgate/internal/app"
	"github.com/shakelz/assetgate/internal/buildinfo"
	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/render"
	"github.com/shakelz/assetgate/internal/resolve"
)

// CurrentResponse is the output of the current command.
type CurrentResponse struct {
	Version     string    `json:"version" yaml:"version"`
	BaseURL     string    `json:"base_url" yaml:"base_url"`
	Storage     string    `json:"storage" yaml:"storage"`
	LastChanged time.Time `json:"last_changed,omitzero" yaml:"last_changed,omitempty"`
}

// URLResponse is the output of the url command.
type URLResponse struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	URL     string `json:"url" yaml:"url"`
}

// RefreshResponse is the output of the refresh command.
type RefreshResponse struct {
	Previous string `json:"previous" yaml:"previous"`
	Current  string `json:"current" yaml:"current"`
	Changed  bool   `json:"changed" yaml:"changed"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Kind     string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
}

// ChangeResponse is the output of set and clear.
type ChangeResponse struct {
	Previous string `json:"previous" yaml:"previous"`
	Current  string `json:"current" yaml:"current"`
	Changed  bool   `json:"changed" yaml:"changed"`
}

// VersionResponse is the output of the version command.
type VersionResponse struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
}

func currentCommand() *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show the persisted asset version without contacting the server",
		Flags: []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfig)
			}
			a, log, err := openApp(c)
			if err != nil {
				return err
			}
			defer closeApp(a, log)

			a.Coordinator.Load()
			snap := a.Coordinator.Snapshot()
			return r.Render(CurrentResponse{
				Version:     snap.Current,
				BaseURL:     a.Coordinator.BaseURL(),
				Storage:     a.Config.Storage.Backend,
				LastChanged: snap.LastChanged,
			})
		},
	}
}

func urlCommand() *cli.Command {
	return &cli.Command{
		Name:      "url",
		Usage:     "Resolve an asset name to its versioned URL",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ext", Usage: "file extension", Value: resolve.DefaultExtension},
			formatFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: assetgate url <name> [--ext png]", exitConfig)
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfig)
			}
			a, log, err := openApp(c)
			if err != nil {
				return err
			}
			defer closeApp(a, log)

			a.Coordinator.Load()
			name := c.Args().First()
			return r.Render(URLResponse{
				Name:    resolve.NormalizeName(name),
				Version: a.Coordinator.CurrentVersion(),
				URL:     a.Coordinator.ImageURL(name, c.String("ext")),
			})
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Check the server for a new asset version now",
		Flags: []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfig)
			}
			a, log, err := openApp(c)
			if err != nil {
				return err
			}
			defer closeApp(a, log)

			a.Coordinator.Load()
			res := a.Coordinator.ForceRefresh(c.Context)
			resp := RefreshResponse{
				Previous: res.Previous,
				Current:  res.Current,
				Changed:  res.Changed,
			}
			if res.Err != nil {
				resp.Error = res.Err.Error()
				resp.Kind = string(coordinator.FailureKindOf(res.Err))
			}
			if err := r.Render(resp); err != nil {
				return err
			}
			if res.Err != nil {
				return cli.Exit("", exitCheckFailure)
			}
			return nil
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Override the asset version without contacting the server",
		ArgsUsage: "<tag>",
		Flags:     []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: assetgate set <tag>", exitConfig)
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfig)
			}
			a, log, err := openApp(c)
			if err != nil {
				return err
			}
			defer closeApp(a, log)

			a.Coordinator.Load()
			prev := a.Coordinator.CurrentVersion()
			if err := a.Coordinator.SetVersionManually(c.Args().First()); err != nil {
				if errors.Is(err, coordinator.ErrEmptyTag) {
					return cli.Exit(err.Error(), exitConfig)
				}
				return fmt.Errorf("persist version: %w", err)
			}
			cur := a.Coordinator.CurrentVersion()
			return r.Render(ChangeResponse{Previous: prev, Current: cur, Changed: prev != cur})
		},
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove the persisted version and fall back to the default",
		Flags: []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfig)
			}
			a, log, err := openApp(c)
			if err != nil {
				return err
			}
			defer closeApp(a, log)

			a.Coordinator.Load()
			prev := a.Coordinator.CurrentVersion()
			if err := a.Coordinator.ClearCache(); err != nil {
				return fmt.Errorf("clear version: %w", err)
			}
			cur := a.Coordinator.CurrentVersion()
			return r.Render(ChangeResponse{Previous: prev, Current: cur, Changed: prev != cur})
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Open the live status view",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "poll", Usage: "check interval (overrides poll_interval; 0 disables)"},
			&cli.StringFlag{Name: "theme", Usage: "Nightfox or Slate"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("poll") {
				cfg.PollInterval = c.Duration("poll")
			}
			if c.IsSet("theme") {
				cfg.Theme = c.String("theme")
			}
			// The TUI owns the terminal; only errors reach the log.
			cfg.LogLevel = "error"
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			return app.Run(c.Context, app.Options{Config: cfg, Logger: log})
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfig)
			}
			return r.Render(VersionResponse{Version: buildinfo.Version, Commit: buildinfo.Commit})
		},
	}
}
