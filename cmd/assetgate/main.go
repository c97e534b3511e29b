// Package main provides the assetgate CLI entrypoint.
//
// Usage:
//
//	assetgate [global options] <command> [options]
//
// Exit codes:
//   - 0: success
//   - 1: unexpected error
//   - 2: invalid configuration or usage
//   - 3: the version check failed (refresh only); the current tag was kept
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/shakelz/assetgate/internal/buildinfo"
)

const (
	exitError        = 1
	exitConfig       = 2
	exitCheckFailure = 3
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(exitError)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "assetgate",
		Usage:          "Serve remote-version-gated asset URLs",
		Version:        fmt.Sprintf("%s (commit: %s)", buildinfo.Version, buildinfo.Commit),
		Flags:          globalFlags(),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			currentCommand(),
			urlCommand(),
			refreshCommand(),
			setCommand(),
			clearCommand(),
			watchCommand(),
			versionCommand(),
		},
	}
}

// exitErrHandler preserves exit codes from cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitError)
}
