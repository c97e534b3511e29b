package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	state := m.connectionState()
	badge := styles.StateStyle(state).Render(strings.ToUpper(state))
	if m.refreshing {
		badge = bg.Render(m.spinner.View(), styles.AccentText) + bg.Spaces(1) + badge
	}

	parts := []string{
		bg.Render("assetgate", styles.Logo),
		badge,
		bg.Render("version", styles.FaintText) + bg.Spaces(1) + bg.Render(m.snapshot.Current, styles.AccentText),
	}
	header := styles.Header
	if m.width > 0 {
		header = header.Width(m.width)
	}
	return header.Render(bg.Join(parts, "  "))
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	rows := [][2]string{
		{"Sample URL", m.sampleURL()},
		{"Last check", formatWhen(m.snapshot.LastChecked)},
		{"Last change", formatWhen(m.snapshot.LastChanged)},
	}
	if m.snapshot.LastError != nil {
		rows = append(rows,
			[2]string{"Last error", m.snapshot.LastError.Error()},
			[2]string{"Failures", fmt.Sprintf("%d in a row", m.snapshot.ConsecutiveFailures)},
		)
	}
	rows = append(rows, [2]string{"Checks", fmt.Sprintf("%d ok, %d failed, %d unchanged, %d joined",
		m.metrics.FetchesSucceeded, m.metrics.FetchesFailed, m.metrics.NoopChecks, m.metrics.CoalescedRefresh)})
	if m.lastResult != nil {
		rows = append(rows, [2]string{"Manual check", describeResult(m.lastResult.Previous, m.lastResult.Current, m.lastResult.Changed, m.lastResult.Err)})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		label := styles.MutedText.Width(13).Render(row[0])
		value := styles.Text.Render(row[1])
		if row[0] == "Last error" {
			value = styles.DangerText.Render(row[1])
		}
		lines = append(lines, label+value)
	}
	return styles.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Render("Recent changes")
	if len(m.history) == 0 {
		return styles.Panel.Render(title + "\n" + styles.FaintText.Render("No changes since start"))
	}
	lines := []string{title}
	for _, ev := range m.history {
		lines = append(lines, fmt.Sprintf("%s  %s → %s  %s",
			styles.FaintText.Render(ev.At.Format("15:04:05")),
			styles.MutedText.Render(ev.Old),
			styles.SuccessText.Render(ev.New),
			styles.FaintText.Render(string(ev.Source)),
		))
	}
	return styles.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	poll := "polling off"
	if m.pollEvery > 0 {
		poll = "polling every " + m.pollEvery.String()
	}
	hints := make([]string, 0, 5)
	for _, b := range m.keys.all() {
		hints = append(hints, b.Help().Key+" "+b.Help().Desc)
	}
	hints = append(hints, poll)
	footer := styles.Footer
	if m.width > 0 {
		footer = footer.Width(m.width)
	}
	return footer.Render(strings.Join(hints, "  •  "))
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	lines := []string{styles.AccentText.Render("Keys"), ""}
	for _, b := range m.keys.all() {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			styles.WarningText.Width(8).Render(b.Help().Key),
			styles.Text.Render(b.Help().Desc)))
	}
	lines = append(lines, "", styles.FaintText.Render("Press any key to close"))
	return styles.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) sampleURL() string {
	if m.source == nil {
		return "-"
	}
	return m.source.ImageURL(sampleAsset)
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func describeResult(prev, cur string, changed bool, err error) string {
	switch {
	case err != nil:
		return "failed: " + err.Error()
	case changed:
		return prev + " → " + cur
	default:
		return "unchanged (" + cur + ")"
	}
}
