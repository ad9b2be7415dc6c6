package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the browser's bindings. Plain up/down move the memory
// cursor; preview scrolling gets its own chords so the text input keeps
// ordinary characters.
type keyMap struct {
	CursorUp   key.Binding
	CursorDown key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Accept     key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	CursorUp: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("up", "previous memory"),
	),
	CursorDown: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("down", "next memory"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "scroll preview up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "scroll preview down"),
	),
	Accept: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy expand command"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}
