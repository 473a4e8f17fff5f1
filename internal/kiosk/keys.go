package kiosk

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the kiosk TUI.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Next  key.Binding // Advance the wizard / confirm.
	Back  key.Binding // Previous wizard step / leave a pane.
	Buy   key.Binding // Open the purchase wizard from the landing view.
	Login key.Binding

	// Admin pane.
	Refresh     key.Binding
	PageNext    key.Binding
	PagePrev    key.Binding
	Verify      key.Binding
	Reject      key.Binding
	Pending     key.Binding
	CycleFilter key.Binding
	Leaderboard key.Binding
	Search      key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "shift+tab"),
		key.WithHelp("↑", "previous field"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "tab"),
		key.WithHelp("↓", "next field"),
	),
	Next: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "next"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Buy: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "buy tickets"),
	),
	Login: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "log in"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	PageNext: key.NewBinding(
		key.WithKeys("right", "]"),
		key.WithHelp("→", "next page"),
	),
	PagePrev: key.NewBinding(
		key.WithKeys("left", "["),
		key.WithHelp("←", "previous page"),
	),
	Verify: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify"),
	),
	Reject: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reject"),
	),
	Pending: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "mark pending"),
	),
	CycleFilter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "cycle status filter"),
	),
	Leaderboard: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "leaderboard"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search by number"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
