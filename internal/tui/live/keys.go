package live

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the live view key bindings
type KeyMap struct {
	Answer key.Binding
	HangUp key.Binding
	Quit   key.Binding
}

// DefaultKeyMap provides the default key bindings
var DefaultKeyMap = KeyMap{
	Answer: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "answer")),
	HangUp: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hang up")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Answer, k.HangUp, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
