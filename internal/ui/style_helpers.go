package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints header segments on one background color. lipgloss leaves
// unpainted gaps between separately rendered words, so spaces are rendered
// with the background too.
type BgStyle struct {
	fill  lipgloss.Style
	space string
}

// NewBgStyle creates a background helper for color.
func NewBgStyle(color string) BgStyle {
	fill := lipgloss.NewStyle().Background(lipgloss.Color(color))
	return BgStyle{fill: fill, space: fill.Render(" ")}
}

// Render draws text in style on the shared background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	painted := style.Background(b.fill.GetBackground())
	var sb strings.Builder
	for i, word := range strings.Split(text, " ") {
		if i > 0 {
			sb.WriteString(b.space)
		}
		if word != "" {
			sb.WriteString(painted.Render(word))
		}
	}
	return sb.String()
}

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.fill.Render(strings.Repeat(" ", n))
}

// Join joins parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.fill.Render(sep))
}
