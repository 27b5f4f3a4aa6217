package checklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/themenu/internal/ui"
)

// listItem adapts a widget entry to bubbles/list.Item.
type listItem struct {
	index int
	text  string
	group string
}

func (i listItem) Title() string       { return i.text }
func (i listItem) Description() string { return i.group }
func (i listItem) FilterValue() string { return i.text }

// delegate renders one entry per line, reading state from the widget.
type delegate struct{ w *Widget }

func (d delegate) Height() int                               { return 1 }
func (d delegate) Spacing() int                              { return 0 }
func (d delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	li, ok := item.(listItem)
	if !ok {
		return
	}
	it := d.w.Item(li.index)
	if it == nil {
		return
	}
	t := ui.Current()
	text := li.text
	if it.Checked() {
		text = t.Done.Render(text)
	}
	line := fmt.Sprintf("%s %s", ui.Box(it.Checked()), text)
	if li.group != "" {
		line += " " + t.Muted.Render("("+li.group+")")
	}
	if it.DropdownOpen() {
		line += " " + t.Accent.Render("▾ menu open")
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

var (
	clickBind    = key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle"))
	menuBind     = key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu"))
	buttonBind   = key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "button"))
	quitBindings = key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit"))
)

// Model is the Bubble Tea front end of a Widget.
type Model struct {
	w     *Widget
	list  list.Model
	title string
}

func NewModel(w *Widget, title string) Model {
	items := make([]list.Item, 0, w.Len())
	for i := 0; i < w.Len(); i++ {
		it := w.Item(i)
		items = append(items, listItem{index: i, text: it.Text, group: it.Target.GroceryType})
	}
	l := list.New(items, delegate{w: w}, 0, 0)
	t := ui.Current()
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Muted
	l.Styles.PaginationStyle = t.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding { return []key.Binding{clickBind, menuBind, buttonBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	m := Model{w: w, list: l, title: title}
	m.refreshTitle()
	return m
}

// Run starts the list full screen and blocks until the user quits.
func Run(w *Widget, title string) error {
	_, err := tea.NewProgram(NewModel(w, title), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) refreshTitle() {
	t := ui.Current()
	done, pending := m.w.Stats()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render(m.title),
		t.Success.Render(t.SymOK), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), m.w.Len(),
	)
}

func (m Model) selected() int {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return -1
	}
	return li.index
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, quitBindings):
			return m, tea.Quit
		case key.Matches(msg, clickBind):
			m.click(OriginItem)
			return m, nil
		case key.Matches(msg, buttonBind):
			m.click(OriginButton)
			return m, nil
		case key.Matches(msg, menuBind):
			if i := m.selected(); i >= 0 {
				m.w.SetDropdown(i, !m.w.Item(i).DropdownOpen())
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) click(origin Origin) {
	i := m.selected()
	if i < 0 {
		return
	}
	m.w.Click(i, origin)
	m.refreshTitle()
}

func (m Model) View() string {
	return ui.PanelString(strings.TrimRight(m.list.View(), "\n"))
}
