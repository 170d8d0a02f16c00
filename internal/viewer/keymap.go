package viewer

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Tab          key.Binding
	Follow       key.Binding
	Search       key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding
	Bookmark     key.Binding
	NextBookmark key.Binding
	PrevBookmark key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	ZoomFit      key.Binding
	Save         key.Binding
	Clear        key.Binding
	ResetCounts  key.Binding
	Quit         key.Binding
	Enter        key.Binding
	Escape       key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Search, k.Bookmark, k.Save, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Follow},
		{k.Search, k.NextMatch, k.PrevMatch, k.Bookmark, k.NextBookmark, k.PrevBookmark},
		{k.Tab, k.ZoomIn, k.ZoomOut, k.ZoomFit, k.Save, k.Clear, k.ResetCounts, k.Quit},
	}
}

var keys = KeyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:       key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown:     key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "page down")),
	Tab:          key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	Follow:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow tail")),
	Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	NextMatch:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
	PrevMatch:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev match")),
	Bookmark:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark")),
	NextBookmark: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next bookmark")),
	PrevBookmark: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev bookmark")),
	ZoomIn:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	ZoomFit:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom to fit")),
	Save:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save trace")),
	Clear:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	ResetCounts:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "reset counters")),
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Enter:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Escape:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}
