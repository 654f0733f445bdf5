package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/doroshop/dsadmin/internal/config"
	"github.com/doroshop/dsadmin/internal/console"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/views"
)

// App is the bubbletea model of the admin console.
type App struct {
	ctx     context.Context
	console *console.Console
	status  *StatusLine

	tabs    []*tab
	active  int
	cursors []int

	searching bool
	search    textinput.Model
	form      *form

	pending  int
	spinning bool
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width, height int
	currency      string
	dateFormat    string
	tz            *time.Location
}

type loadedMsg struct {
	tab int
	err error
}

type resolvedMsg struct {
	tab int
	res modal.Result
}

// New builds the app. status must be the notifier the console was built
// with so that console messages reach the status line.
func New(ctx context.Context, cfg config.UIConfig, c *console.Console, status *StatusLine) *App {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 128

	currency := cfg.CurrencySymbol
	if currency == "" {
		currency = console.DefaultCurrency
	}
	dateFormat := cfg.DateFormat
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}
	a := &App{
		ctx:        ctx,
		console:    c,
		status:     status,
		search:     search,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:       help.New(),
		keys:       defaultKeys(),
		currency:   currency,
		dateFormat: dateFormat,
		tz:         cfg.Location(),
	}
	a.tabs = a.buildTabs()
	a.cursors = make([]int, len(a.tabs))
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.tabs)+1)
	for i := range a.tabs {
		cmds = append(cmds, a.load(i))
	}
	cmds = append(cmds, a.spin())
	return tea.Batch(cmds...)
}

func (a *App) current() *tab { return a.tabs[a.active] }

func (a *App) load(i int) tea.Cmd {
	a.pending++
	t := a.tabs[i]
	q := t.screen.Query()
	return func() tea.Msg {
		return loadedMsg{tab: i, err: t.screen.Load(a.ctx, q)}
	}
}

func (a *App) spin() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
		return a, nil
	case spinner.TickMsg:
		if a.pending == 0 {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case loadedMsg:
		if a.pending > 0 {
			a.pending--
		}
		if m.err != nil {
			a.status.Notify(fmt.Sprintf("Could not load %s: %s", a.tabs[m.tab].screen.Name(), modal.ErrorMessage(m.err)), notify.Error)
		}
		a.clampCursor(m.tab)
		return a, nil
	case resolvedMsg:
		if a.pending > 0 {
			a.pending--
		}
		d := a.tabs[m.tab].dialog
		d.Resolve(m.res)
		if m.tab == a.active {
			switch {
			case !d.IsOpen():
				a.form = nil
			case a.form != nil && len(d.Fields()) != len(a.form.inputs):
				a.form = newForm(d.Fields())
			}
		}
		a.clampCursor(m.tab)
		return a, nil
	case tea.KeyMsg:
		if a.current().dialog.IsOpen() {
			return a.handleModalKey(m)
		}
		if a.searching {
			return a.handleSearchKey(m)
		}
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := a.current()
	keys := a.keys.forTab(t)
	row := a.cursors[a.active]

	if s := m.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		if i := int(s[0] - '1'); i < len(a.tabs) {
			a.active = i
		}
		return a, nil
	}

	switch {
	case key.Matches(m, keys.Quit):
		return a, tea.Quit
	case key.Matches(m, keys.NextTab):
		a.active = (a.active + 1) % len(a.tabs)
	case key.Matches(m, keys.PrevTab):
		a.active = (a.active - 1 + len(a.tabs)) % len(a.tabs)
	case key.Matches(m, keys.Up):
		if row > 0 {
			a.cursors[a.active]--
		}
	case key.Matches(m, keys.Down):
		a.cursors[a.active]++
		a.clampCursor(a.active)
	case key.Matches(m, keys.Search):
		a.searching = true
		a.search.SetValue(t.screen.Filter().Query)
		return a, a.search.Focus()
	case key.Matches(m, keys.Clear):
		t.screen.SetQuery("")
		a.clampCursor(a.active)
	case key.Matches(m, keys.Status):
		status, refetch := t.screen.CycleStatus()
		a.cursors[a.active] = 0
		if status != "" {
			a.status.Notify("Showing "+status+" "+t.screen.Name(), notify.Info)
		}
		if refetch {
			return a, tea.Batch(a.load(a.active), a.spin())
		}
	case key.Matches(m, keys.Refresh):
		return a, tea.Batch(a.load(a.active), a.spin())
	case key.Matches(m, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(m, keys.New):
		return a, a.open(t.create)
	case key.Matches(m, keys.Edit):
		if t.edit != nil {
			return a, a.open(func() error { return t.edit(row) })
		}
	case key.Matches(m, keys.Delete):
		if t.remove != nil {
			return a, a.open(func() error { return t.remove(row) })
		}
	default:
		for _, act := range t.actions {
			if m.String() == act.key {
				open := act.open
				return a, a.open(func() error { return open(row) })
			}
		}
	}
	return a, nil
}

// open starts a dialog on the active tab and builds its form.
func (a *App) open(fn func() error) tea.Cmd {
	if fn == nil {
		return nil
	}
	if err := fn(); err != nil {
		a.status.Notify(modal.ErrorMessage(err), notify.Warning)
		return nil
	}
	a.form = newForm(a.current().dialog.Fields())
	return textinput.Blink
}

func (a *App) handleSearchKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := a.current()
	switch m.String() {
	case "esc":
		a.searching = false
		a.search.Blur()
		a.search.SetValue("")
		t.screen.SetQuery("")
		a.clampCursor(a.active)
		return a, nil
	case "enter":
		a.searching = false
		a.search.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	t.screen.SetQuery(a.search.Value())
	a.cursors[a.active] = 0
	return a, cmd
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.current().dialog
	if d.Submitting() {
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, nil
	}
	if a.form == nil {
		a.form = newForm(d.Fields())
	}
	switch m.String() {
	case "esc":
		d.Cancel()
		a.form = nil
		return a, nil
	case "tab", "down":
		a.form.move(1)
		return a, nil
	case "shift+tab", "up":
		a.form.move(-1)
		return a, nil
	case "enter":
		if err := d.Apply(a.form.values()); err != nil {
			a.status.Notify(modal.ErrorMessage(err), notify.Error)
			return a, nil
		}
		run := d.Submit()
		if run == nil {
			return a, nil
		}
		idx := a.active
		a.pending++
		return a, tea.Batch(func() tea.Msg {
			return resolvedMsg{tab: idx, res: run(a.ctx)}
		}, a.spin())
	}
	cmd := a.form.update(m)
	if err := d.Apply(a.form.values()); err != nil {
		a.status.Notify(modal.ErrorMessage(err), notify.Error)
	}
	return a, cmd
}

func (a *App) rowCount(i int) int {
	_, rows := a.tabs[i].table()
	return len(rows)
}

func (a *App) clampCursor(i int) {
	n := a.rowCount(i)
	if a.cursors[i] >= n {
		a.cursors[i] = n - 1
	}
	if a.cursors[i] < 0 {
		a.cursors[i] = 0
	}
}

func (a *App) View() string {
	t := a.current()
	sections := []string{a.renderHeader(), a.renderFilter(t)}
	if stats := t.stats(); stats != "" {
		sections = append(sections, mutedStyle.Render(stats))
	}
	sections = append(sections, a.renderBody(t))
	if line := a.status.view(a.width); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, a.help.View(a.keys.forTab(t)))
	base := strings.Join(sections, "\n\n")

	if t.dialog.IsOpen() {
		return renderPopup(base, a.renderDialog(t.dialog), a.width, a.height)
	}
	return base
}

func (a *App) renderHeader() string {
	parts := []string{appNameStyle.Render(" dsadmin ")}
	for i, t := range a.tabs {
		label := fmt.Sprintf("%d %s", i+1, t.title)
		if i == a.active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if a.width > 0 {
		return headerStyle.Width(a.width).Render(bar)
	}
	return headerStyle.Render(bar)
}

func (a *App) renderFilter(t *tab) string {
	var parts []string
	if a.searching {
		parts = append(parts, a.search.View())
	} else if q := t.screen.Filter().Query; q != "" {
		parts = append(parts, "Search: "+q)
	}
	if len(t.screen.Statuses()) > 0 {
		status := t.screen.Filter().Status
		if status == "" {
			status = views.StatusAll
		}
		parts = append(parts, "Status: "+status)
	}
	if len(parts) == 0 {
		return hintStyle.Render("/ to search")
	}
	return strings.Join(parts, "   ")
}

func (a *App) renderBody(t *tab) string {
	if t.screen.Blocking() {
		return a.spinner.View() + " Loading " + t.screen.Name() + "…"
	}
	headers, rows := t.table()
	if len(rows) == 0 {
		if t.screen.Filter().Query != "" {
			return mutedStyle.Render("No " + t.screen.Name() + " match the search.")
		}
		return mutedStyle.Render("No " + t.screen.Name() + " yet.")
	}
	cursor := a.cursors[a.active]
	offset, limit := window(len(rows), cursor, a.tableHeight())
	shown := rows[offset : offset+limit]

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorder).
		BorderColumn(false).
		Headers(headers...).
		Rows(shown...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case row+offset == cursor:
				return tableSelected
			default:
				return tableCell
			}
		})
	out := tbl.Render()
	if limit < len(rows) {
		out += "\n" + hintStyle.Render(fmt.Sprintf("%d-%d of %d", offset+1, offset+limit, len(rows)))
	}
	return out
}

func (a *App) tableHeight() int {
	if a.height <= 0 {
		return 0
	}
	// header, filter, stats, status, help and table chrome
	return max(3, a.height-16)
}

// window returns the slice of rows to show so that cursor stays visible.
// A limit of zero shows everything.
func window(total, cursor, limit int) (int, int) {
	if limit <= 0 || total <= limit {
		return 0, total
	}
	offset := 0
	if cursor >= limit {
		offset = cursor - limit + 1
	}
	return offset, limit
}

func (a *App) renderDialog(d dialog) string {
	lines := []string{titleStyle.Render(d.Title())}
	if w := d.Warning(); w != "" {
		lines = append(lines, warningStyle.Render("! "+w))
	}
	if a.form != nil && len(a.form.inputs) > 0 {
		lines = append(lines, "", a.form.view())
	}
	lines = append(lines, "")
	if d.Submitting() {
		lines = append(lines, a.spinner.View()+" Working…")
	} else {
		lines = append(lines, hintStyle.Render("enter confirm   esc cancel   tab next field"))
	}
	return strings.Join(lines, "\n")
}
