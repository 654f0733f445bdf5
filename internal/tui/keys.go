package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Up      key.Binding
	Down    key.Binding
	Search  key.Binding
	Status  key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Clear   key.Binding

	// extra holds the active tab's action keys.
	extra []key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab: key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev tab")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Status:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
	}
}

// forTab enables only the bindings the tab supports.
func (k keyMap) forTab(t *tab) keyMap {
	k.New.SetEnabled(t.create != nil)
	k.Edit.SetEnabled(t.edit != nil)
	k.Delete.SetEnabled(t.remove != nil)
	k.Status.SetEnabled(len(t.screen.Statuses()) > 0)
	k.extra = nil
	for _, a := range t.actions {
		k.extra = append(k.extra, key.NewBinding(key.WithKeys(a.key), key.WithHelp(a.key, a.label)))
	}
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	out := []key.Binding{k.New, k.Edit, k.Delete}
	out = append(out, k.extra...)
	return append(out, k.Search, k.Status, k.Help, k.Quit)
}

func (k keyMap) FullHelp() [][]key.Binding {
	actions := append([]key.Binding{k.New, k.Edit, k.Delete}, k.extra...)
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		actions,
		{k.Search, k.Clear, k.Status, k.Refresh},
		{k.Help, k.Quit},
	}
}
