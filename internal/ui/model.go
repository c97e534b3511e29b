package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/metrics"
	"github.com/shakelz/assetgate/internal/state"
)

const (
	defaultRefreshEvery = time.Second
	maxEvents           = 8
	sampleAsset         = "sample"
)

// Source is the part of the coordinator the watch view reads.
type Source interface {
	ImageURL(name string, ext ...string) string
	Snapshot() state.Snapshot
	Metrics() metrics.Snapshot
	ForceRefresh(ctx context.Context) coordinator.Result
	BaseURL() string
}

// Options configure the watch view.
type Options struct {
	Coordinator Source
	// Events delivers version changes to the view. Run fills it in.
	Events <-chan coordinator.Event
	// ThemeName selects the initial theme; empty uses Nightfox.
	ThemeName string
	// PollEvery is shown in the footer; zero means polling is off.
	PollEvery time.Duration
	// RefreshEvery is how often the view re-reads the snapshot.
	RefreshEvery time.Duration
	// OnThemeChange is called off the UI loop after the user cycles themes.
	OnThemeChange func(name string)
}

// Model is the Bubble Tea model for the watch view.
type Model struct {
	ctx          context.Context
	source       Source
	events       <-chan coordinator.Event
	keys         keyMap
	pollEvery    time.Duration
	refreshEvery time.Duration
	onTheme      func(string)

	theme    Theme
	width    int
	showHelp bool

	spinner    spinner.Model
	refreshing bool
	lastResult *coordinator.Result

	snapshot state.Snapshot
	metrics  metrics.Snapshot
	history  []coordinator.Event
}

// New creates the watch model.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	refreshEvery := opts.RefreshEvery
	if refreshEvery <= 0 {
		refreshEvery = defaultRefreshEvery
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:          ctx,
		source:       opts.Coordinator,
		events:       opts.Events,
		keys:         defaultKeyMap(),
		pollEvery:    opts.PollEvery,
		refreshEvery: refreshEvery,
		theme:        GetTheme(opts.ThemeName),
		onTheme:      opts.OnThemeChange,
		spinner:      sp,
	}
	if m.source != nil {
		m.snapshot = m.source.Snapshot()
		m.metrics = m.source.Metrics()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.refreshEvery), waitForEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.refreshSnapshot()
		return m, tickCmd(m.refreshEvery)

	case eventMsg:
		m.history = append([]coordinator.Event{coordinator.Event(msg)}, m.history...)
		if len(m.history) > maxEvents {
			m.history = m.history[:maxEvents]
		}
		m.refreshSnapshot()
		return m, waitForEvent(m.events)

	case refreshDoneMsg:
		res := coordinator.Result(msg)
		m.refreshing = false
		m.lastResult = &res
		m.refreshSnapshot()
		return m, nil

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, themeChangedCmd(m.onTheme, m.theme.Name)
	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing || m.source == nil {
			return m, nil
		}
		m.refreshing = true
		return m, tea.Batch(m.spinner.Tick, refreshCmd(m.ctx, m.source))
	}
	return m, nil
}

func (m *Model) refreshSnapshot() {
	if m.source == nil {
		return
	}
	m.snapshot = m.source.Snapshot()
	m.metrics = m.source.Metrics()
}

// connectionState summarizes the snapshot for the header badge.
func (m Model) connectionState() string {
	switch {
	case m.refreshing:
		return stateChecking
	case m.snapshot.IsOffline():
		return stateOffline
	case m.snapshot.LastError != nil:
		return stateDegraded
	case m.snapshot.LastChecked.IsZero():
		return stateChecking
	default:
		return stateOnline
	}
}

// Messages

type tickMsg time.Time

type eventMsg coordinator.Event

type refreshDoneMsg coordinator.Result

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan coordinator.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func refreshCmd(ctx context.Context, source Source) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg(source.ForceRefresh(ctx))
	}
}

func themeChangedCmd(fn func(string), name string) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		fn(name)
		return nil
	}
}
