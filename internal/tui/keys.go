package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Click    key.Binding
	Open     key.Binding
	Author   key.Binding
	Keywords key.Binding
	Title    key.Binding
	Article  key.Binding
	Summary  key.Binding
	Close    key.Binding
	Clear    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	Click: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "expand/reveal"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open link"),
	),
	Author: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "author"),
	),
	Keywords: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "keywords"),
	),
	Title: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "title"),
	),
	Article: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "article id"),
	),
	Summary: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "summarize"),
	),
	Close: key.NewBinding(
		key.WithKeys("x", "esc"),
		key.WithHelp("x", "close detail"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Author, k.Keywords, k.Summary, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Click, k.Open},
		{k.Author, k.Keywords, k.Title, k.Article},
		{k.Summary, k.Close, k.Clear},
		{k.Help, k.Quit},
	}
}
