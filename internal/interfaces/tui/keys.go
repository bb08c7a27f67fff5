package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the vault viewer.
type KeyMap struct {
	// List navigation.
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding

	// Vault actions.
	History  key.Binding
	Delegate key.Binding
	Secure   key.Binding
	Revault  key.Binding
	Confirm  key.Binding // Confirm the revault.
	Sign     key.Binding // Ask the signing device for the next signature.

	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set, vim-style navigation
// alongside arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	History: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "history"),
	),
	Delegate: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delegate"),
	),
	Secure: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "secure"),
	),
	Revault: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "revault"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Sign: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "sign"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
