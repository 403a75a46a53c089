package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the console.
type KeyMap struct {
	Quit        key.Binding
	FastSell    key.Binding
	SlowSell    key.Binding
	SellTracked key.Binding
	Emergency   key.Binding
	Refresh     key.Binding
	Ack         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		FastSell: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fast sell all"),
		),
		SlowSell: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "slow sell all"),
		),
		SellTracked: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "sell tracked"),
		),
		Emergency: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "emergency stop"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Ack: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter", "acknowledge"),
		),
	}
}
