package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shakelz/assetgate/internal/coordinator"
	"github.com/shakelz/assetgate/internal/metrics"
	"github.com/shakelz/assetgate/internal/state"
)

type fakeSource struct {
	snapshot state.Snapshot
	result   coordinator.Result
	refreshs int
}

func (f *fakeSource) ImageURL(name string, _ ...string) string {
	return "https://cdn.example.com/" + f.snapshot.Current + "/" + name + ".jpg"
}
func (f *fakeSource) Snapshot() state.Snapshot  { return f.snapshot }
func (f *fakeSource) Metrics() metrics.Snapshot { return metrics.Snapshot{FetchesSucceeded: 3} }
func (f *fakeSource) BaseURL() string           { return "https://cdn.example.com" }
func (f *fakeSource) ForceRefresh(context.Context) coordinator.Result {
	f.refreshs++
	return f.result
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ViewShowsCurrentVersion(t *testing.T) {
	src := &fakeSource{snapshot: state.Snapshot{Current: "v5", LastChecked: time.Now()}}
	m := New(context.Background(), Options{Coordinator: src})

	view := m.View()
	for _, want := range []string{"assetgate", "v5", "ONLINE", "https://cdn.example.com/v5/sample.jpg", "polling off"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_ConnectionState(t *testing.T) {
	tests := []struct {
		name     string
		snapshot state.Snapshot
		want     string
	}{
		{"never checked", state.Snapshot{Current: "v1"}, stateChecking},
		{"healthy", state.Snapshot{Current: "v1", LastChecked: time.Now()}, stateOnline},
		{"one failure", state.Snapshot{LastChecked: time.Now(), LastError: errors.New("timeout"), ConsecutiveFailures: 1}, stateDegraded},
		{"offline", state.Snapshot{LastChecked: time.Now(), LastError: errors.New("timeout"), ConsecutiveFailures: 2}, stateOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(context.Background(), Options{Coordinator: &fakeSource{snapshot: tt.snapshot}})
			if got := m.connectionState(); got != tt.want {
				t.Fatalf("connectionState = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModel_RefreshKeyRunsCheck(t *testing.T) {
	src := &fakeSource{
		snapshot: state.Snapshot{Current: "v2"},
		result:   coordinator.Result{Previous: "v2", Current: "v3", Changed: true},
	}
	m := New(context.Background(), Options{Coordinator: src})

	next, cmd := m.Update(keyPress("r"))
	m = next.(Model)
	if !m.refreshing || cmd == nil {
		t.Fatal("refresh key should start a check")
	}
	if m.connectionState() != stateChecking {
		t.Fatalf("state = %q while refreshing", m.connectionState())
	}

	// A second press while refreshing is ignored.
	if _, again := m.Update(keyPress("r")); again != nil {
		t.Fatal("second refresh should be ignored while one is running")
	}

	next, _ = m.Update(refreshDoneMsg(src.ForceRefresh(context.Background())))
	m = next.(Model)
	if m.refreshing {
		t.Fatal("refreshing should clear when the check finishes")
	}
	if !strings.Contains(m.View(), "v2 → v3") {
		t.Errorf("view should describe the manual check:\n%s", m.View())
	}
}

func TestModel_EventsAreListedNewestFirst(t *testing.T) {
	events := make(chan coordinator.Event, 1)
	m := New(context.Background(), Options{Coordinator: &fakeSource{}, Events: events})

	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local)
	for i, tag := range []string{"v2", "v3"} {
		next, cmd := m.Update(eventMsg(coordinator.Event{Old: "v1", New: tag, Source: coordinator.SourceRemote, At: at.Add(time.Duration(i) * time.Minute)}))
		m = next.(Model)
		if cmd == nil {
			t.Fatal("event handling should keep listening")
		}
	}
	if len(m.history) != 2 || m.history[0].New != "v3" {
		t.Fatalf("history = %+v, want newest first", m.history)
	}

	for i := 0; i < maxEvents+3; i++ {
		next, _ := m.Update(eventMsg(coordinator.Event{Old: "a", New: "b"}))
		m = next.(Model)
	}
	if len(m.history) != maxEvents {
		t.Fatalf("history length = %d, want %d", len(m.history), maxEvents)
	}
}

func TestModel_Keys(t *testing.T) {
	m := New(context.Background(), Options{Coordinator: &fakeSource{}, ThemeName: "slate"})
	if m.theme.Name != "Slate" {
		t.Fatalf("theme = %q, want Slate", m.theme.Name)
	}

	next, _ := m.Update(keyPress("T"))
	m = next.(Model)
	if m.theme.Name != "Nightfox" {
		t.Fatalf("theme after cycle = %q, want Nightfox", m.theme.Name)
	}

	next, _ = m.Update(keyPress("?"))
	m = next.(Model)
	if !m.showHelp || !strings.Contains(m.View(), "Press any key to close") {
		t.Fatal("help overlay not shown")
	}
	next, _ = m.Update(keyPress("x"))
	m = next.(Model)
	if m.showHelp {
		t.Fatal("any key should close help")
	}

	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

func TestModel_ThemeCycleReportsChoice(t *testing.T) {
	var saved []string
	m := New(context.Background(), Options{
		Coordinator:   &fakeSource{},
		OnThemeChange: func(name string) { saved = append(saved, name) },
	})

	_, cmd := m.Update(keyPress("T"))
	if cmd == nil {
		t.Fatal("theme cycle should return a command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("theme command msg = %v, want nil", msg)
	}
	if len(saved) != 1 || saved[0] != "Slate" {
		t.Fatalf("saved = %v, want [Slate]", saved)
	}
}

func TestThemes(t *testing.T) {
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q", got)
	}
	if got := NextTheme("unknown"); got != ThemeNames()[0] {
		t.Fatalf("NextTheme(unknown) = %q", got)
	}
	if got := GetTheme("missing").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(missing) = %q", got)
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, s := range []string{stateOnline, stateChecking, stateDegraded, stateOffline} {
			if th.StateColors[s] == "" {
				t.Errorf("theme %s missing color for %s", name, s)
			}
		}
	}
}

func TestRun_RequiresCoordinator(t *testing.T) {
	if err := Run(context.Background(), RunOptions{}); err == nil {
		t.Fatal("expected error without coordinator")
	}
}
