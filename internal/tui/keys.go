package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings for both modes.
type KeyMap struct {
	// Normal mode.
	Search   key.Binding
	Quit     key.Binding
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Open     key.Binding
	Routine  key.Binding
	Help     key.Binding

	// Search mode.
	Submit key.Binding
	Cancel key.Binding
}

var DefaultKeyMap = KeyMap{
	Search: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "search"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("J", "pgdown"),
		key.WithHelp("J", "down 5"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("K", "pgup"),
		key.WithHelp("K", "up 5"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open"),
	),
	Routine: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "routine"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// normalHelp and searchHelp implement help.KeyMap for each mode.
type normalHelp struct{ k KeyMap }

func (h normalHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Search, h.k.Down, h.k.Up, h.k.Open, h.k.Routine, h.k.Help, h.k.Quit}
}

func (h normalHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Down, h.k.Up, h.k.PageDown, h.k.PageUp},
		{h.k.Search, h.k.Open, h.k.Routine},
		{h.k.Help, h.k.Quit},
	}
}

type searchHelp struct{ k KeyMap }

func (h searchHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Submit, h.k.Cancel}
}

func (h searchHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
