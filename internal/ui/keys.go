package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings. Printable keys always go to the
// add input, so every command sits on a control chord.
type keyMap struct {
	// Board
	Submit key.Binding
	Up     key.Binding
	Down   key.Binding
	Remove key.Binding

	// Profile
	LoadProfile key.Binding
	SaveProfile key.Binding

	// Columns
	ToggleAtis      key.Binding
	ToggleAltimeter key.Binding
	ToggleWind      key.Binding

	// Window
	CycleTheme key.Binding
	Minimize   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "add / expand"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Remove: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("^x", "remove"),
		),

		LoadProfile: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "load profile"),
		),
		SaveProfile: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^s", "save profile"),
		),

		ToggleAtis: key.NewBinding(
			key.WithKeys("alt+a"),
			key.WithHelp("M-a", "ATIS"),
		),
		ToggleAltimeter: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("^l", "altimeter"),
		),
		ToggleWind: key.NewBinding(
			key.WithKeys("alt+w"),
			key.WithHelp("M-w", "wind"),
		),

		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "theme"),
		),
		Minimize: key.NewBinding(
			key.WithKeys("ctrl+_"),
			key.WithHelp("^_", "minimize"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("^g", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Remove, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Up, k.Down, k.Remove},
		{k.LoadProfile, k.SaveProfile},
		{k.ToggleAtis, k.ToggleAltimeter, k.ToggleWind},
		{k.CycleTheme, k.Minimize, k.Help, k.Quit},
	}
}
