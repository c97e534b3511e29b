package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shakelz/assetgate/internal/coordinator"
)

// Subscriber is a Source that also publishes version changes.
type Subscriber interface {
	Source
	OnVersionChange(handler func(coordinator.Event)) (unsubscribe func())
}

// RunOptions configure Run.
type RunOptions struct {
	Coordinator Subscriber
	ThemeName   string
	PollEvery   time.Duration
	// OnThemeChange receives the theme name whenever the user cycles it.
	OnThemeChange func(name string)
}

// Run starts the watch view and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Coordinator == nil {
		return fmt.Errorf("ui requires a coordinator")
	}

	events := make(chan coordinator.Event, maxEvents)
	unsubscribe := opts.Coordinator.OnVersionChange(func(ev coordinator.Event) {
		select {
		case events <- ev:
		default: // dropped; the next tick re-reads the snapshot
		}
	})
	defer unsubscribe()

	m := New(ctx, Options{
		Coordinator:   opts.Coordinator,
		Events:        events,
		ThemeName:     opts.ThemeName,
		PollEvery:     opts.PollEvery,
		OnThemeChange: opts.OnThemeChange,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil) {
		return nil
	}
	return err
}
