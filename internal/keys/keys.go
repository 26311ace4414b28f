package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down        key.Binding
	Up          key.Binding
	ContentDown key.Binding
	ContentUp   key.Binding

	// Sync
	Sync key.Binding
	Test key.Binding

	// Note actions
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Merge  key.Binding

	// Filter
	Search      key.Binding
	ClearSearch key.Binding

	Command key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next note"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous note"),
		),
		ContentDown: key.NewBinding(
			key.WithKeys("J", "pgdown"),
			key.WithHelp("J", "scroll content down"),
		),
		ContentUp: key.NewBinding(
			key.WithKeys("K", "pgup"),
			key.WithHelp("K", "scroll content up"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync"),
		),
		Test: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "test connection"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new note"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle delete"),
		),
		Merge: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "merge copies"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearSearch: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filter"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Sync, k.New, k.Edit, k.Delete, k.Merge, k.Search, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.ContentUp, k.ContentDown},
		{k.Sync, k.Test, k.Merge},
		{k.New, k.Edit, k.Delete},
		{k.Search, k.ClearSearch, k.Command, k.Help, k.Quit},
	}
}
