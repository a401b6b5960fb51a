package selector

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Accept        key.Binding
	Cancel        key.Binding
	TogglePreview key.Binding
	PreviewUp     key.Binding
	PreviewDown   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+k", "ctrl+p"),
			key.WithHelp("↑/ctrl+k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+j", "ctrl+n"),
			key.WithHelp("↓/ctrl+j", "down"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
		TogglePreview: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "preview"),
		),
		PreviewUp: key.NewBinding(
			key.WithKeys("pgup", "shift+up"),
			key.WithHelp("pgup", "scroll preview"),
		),
		PreviewDown: key.NewBinding(
			key.WithKeys("pgdown", "shift+down"),
			key.WithHelp("pgdn", "scroll preview"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Accept, k.Cancel, k.TogglePreview}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.PreviewUp, k.PreviewDown}}
}
