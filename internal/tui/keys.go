package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for `isle top`.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Search    key.Binding
	Refresh   key.Binding
	NextFocus key.Binding
	PrevFocus key.Binding
	Minimal   key.Binding
	Compact   key.Binding
	Expanded  key.Binding
	Overlay   key.Binding
	Copy      key.Binding

	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Minimal, k.Compact, k.Expanded, k.Overlay},
		{k.NextFocus, k.PrevFocus, k.Search, k.Refresh},
		{k.Copy, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view properties"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab", "n"),
			key.WithHelp("tab/n", "focus next"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab", "p"),
			key.WithHelp("S-tab/p", "focus previous"),
		),
		Minimal: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "minimal"),
		),
		Compact: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "compact"),
		),
		Expanded: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "expanded"),
		),
		Overlay: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "overlay"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy as YAML"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
