package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the watch view bindings.
type keyMap struct {
	Quit       key.Binding
	Refresh    key.Binding
	CycleTheme key.Binding
	Help       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Check now"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
	}
}

func (k keyMap) all() []key.Binding {
	return []key.Binding{k.Refresh, k.CycleTheme, k.Help, k.Quit}
}
