// Package tui is the interactive todo list. All state comes from a
// state.Coordinator; the model only mirrors its latest snapshot.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/state"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Run starts the program and forwards every coordinator change to it.
func Run(ctx context.Context, c *state.Coordinator) error {
	p := tea.NewProgram(New(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := c.Subscribe(func(s state.Snapshot) { p.Send(snapshotMsg(s)) })
	defer unsubscribe()
	_, err := p.Run()
	return err
}

type mode int

const (
	browsing mode = iota
	adding
	editing
	searching
)

type snapshotMsg state.Snapshot

// deletedMsg reports a delete; undo is only offered when removed is true.
type deletedMsg struct {
	todo    model.Todo
	removed bool
	snap    state.Snapshot
}

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct{ todo model.Todo }

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return i.todo.Description }
func (i listItem) FilterValue() string { return i.todo.Title }

// itemDelegate renders one line per todo.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd     { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	th := ui.Current()
	box := th.Muted.Render(th.BoxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = th.Success.Render(th.BoxChecked)
		text = th.Done.Render(text)
	}
	if it.todo.Description != "" {
		text += " " + th.Muted.Render("- "+firstLine(it.todo.Description))
	}
	prefix := "  "
	if index == m.Index() {
		prefix = th.Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

var (
	addKey     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editKey    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleKey  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteKey  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	undoKey    = key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	filterKey  = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	searchKey  = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search"))
	backendKey = key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "backend"))
	refreshKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	quitKey    = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
)

// Model is the Bubble Tea model for the list.
type Model struct {
	ctx   context.Context
	coord *state.Coordinator

	list  list.Model
	input textinput.Model
	mode  mode
	// editID is the todo being edited.
	editID   string
	inputErr string

	// single-level undo for delete
	undo *model.Todo

	snap          state.Snapshot
	width, height int
}

func New(ctx context.Context, c *state.Coordinator) Model {
	th := ui.Current()
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	// filtering is done by the coordinator
	l.SetFilteringEnabled(false)
	l.Styles.Title = th.Title
	l.Styles.HelpStyle = th.Muted
	l.Styles.PaginationStyle = th.Muted
	l.SetStatusBarItemName("todo", "todos")
	short := []key.Binding{addKey, editKey, toggleKey, deleteKey, filterKey, searchKey, backendKey}
	l.AdditionalShortHelpKeys = func() []key.Binding { return short }
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return append(short, undoKey, refreshKey)
	}
	l.KeyMap.Quit = quitKey

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		ctx:    ctx,
		coord:  c,
		list:   l,
		input:  ti,
		snap:   c.Snapshot(),
		width:  80,
		height: 24,
	}
	m.list.Title = m.header()
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context, c *state.Coordinator) { _ = c.Fetch(ctx) })
}

// run performs fn off the event loop and reports the resulting snapshot.
// Failures are recorded in the snapshot by the coordinator.
func (m Model) run(fn func(context.Context, *state.Coordinator)) tea.Cmd {
	ctx, c := m.ctx, m.coord
	return func() tea.Msg {
		fn(ctx, c)
		return snapshotMsg(c.Snapshot())
	}
}

func (m Model) remove(t model.Todo) tea.Cmd {
	ctx, c := m.ctx, m.coord
	return func() tea.Msg {
		removed := c.Delete(ctx, t.ID)
		return deletedMsg{todo: t, removed: removed, snap: c.Snapshot()}
	}
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.todo, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case snapshotMsg:
		return m.applySnapshot(state.Snapshot(msg))
	case deletedMsg:
		if msg.removed {
			t := msg.todo
			m.undo = &t
		}
		return m.applySnapshot(msg.snap)
	case tea.KeyMsg:
		if m.mode != browsing {
			return m.updateInput(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}
	if m.mode != browsing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) applySnapshot(s state.Snapshot) (tea.Model, tea.Cmd) {
	m.snap = s
	idx := m.list.Index()
	items := make([]list.Item, 0, len(s.Todos))
	for _, t := range s.Todos {
		items = append(items, listItem{todo: t})
	}
	cmd := m.list.SetItems(items)
	if idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	m.list.Title = m.header()
	return *m, cmd
}

// handleKey runs browsing-mode shortcuts. Unhandled keys go to the list.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, quitKey):
		return tea.Quit, true
	case key.Matches(msg, toggleKey):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		return m.run(func(ctx context.Context, c *state.Coordinator) { _, _ = c.Toggle(ctx, t.ID) }), true
	case key.Matches(msg, deleteKey):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		return m.remove(t), true
	case key.Matches(msg, undoKey):
		if m.undo == nil {
			return nil, true
		}
		t := *m.undo
		m.undo = nil
		// the restored todo gets a new id and creation time
		return m.run(func(ctx context.Context, c *state.Coordinator) {
			_, _ = c.Create(ctx, model.NewTodo{
				Title:       t.Title,
				Description: t.Description,
				Completed:   t.Completed,
			})
		}), true
	case key.Matches(msg, addKey):
		return m.startInput(adding, "", "New todo title..."), true
	case key.Matches(msg, editKey):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		m.editID = t.ID
		return m.startInput(editing, t.Title, "Edit todo title..."), true
	case key.Matches(msg, searchKey):
		return m.startInput(searching, m.snap.Filter.SearchTerm, "Search title or description..."), true
	case key.Matches(msg, filterKey):
		f := nextFilter(m.snap.Filter)
		return m.run(func(ctx context.Context, c *state.Coordinator) { _ = c.SetFilter(ctx, f) }), true
	case key.Matches(msg, backendKey):
		next := state.BackendRemote
		if m.snap.Backend == state.BackendRemote {
			next = state.BackendLocal
		}
		m.undo = nil
		return m.run(func(ctx context.Context, c *state.Coordinator) { _ = c.SetBackend(ctx, next) }), true
	case key.Matches(msg, refreshKey):
		return m.run(func(ctx context.Context, c *state.Coordinator) { _ = c.Fetch(ctx) }), true
	}
	return nil, false
}

func (m *Model) startInput(md mode, value, placeholder string) tea.Cmd {
	m.mode = md
	m.inputErr = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	m.resize()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = browsing
	m.editID = ""
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
	m.resize()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopInput()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		var cmd tea.Cmd
		switch m.mode {
		case searching:
			f := m.snap.Filter
			f.SearchTerm = value
			cmd = m.run(func(ctx context.Context, c *state.Coordinator) { _ = c.SetFilter(ctx, f) })
		case adding:
			if value == "" {
				m.inputErr = "Title cannot be empty"
				return m, nil
			}
			cmd = m.run(func(ctx context.Context, c *state.Coordinator) {
				_, _ = c.Create(ctx, model.NewTodo{Title: value})
			})
		case editing:
			if value == "" {
				m.inputErr = "Title cannot be empty"
				return m, nil
			}
			id := m.editID
			cmd = m.run(func(ctx context.Context, c *state.Coordinator) {
				_, _ = c.Update(ctx, id, model.TodoPatch{Title: model.String(value)})
			})
		}
		m.stopInput()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// nextFilter cycles all -> active -> done -> all, keeping the search term.
func nextFilter(f model.TodoFilter) model.TodoFilter {
	switch {
	case f.Completed == nil:
		f.Completed = model.Bool(false)
	case !*f.Completed:
		f.Completed = model.Bool(true)
	default:
		f.Completed = nil
	}
	return f
}

func filterLabel(f model.TodoFilter) string {
	label := "all"
	if f.Completed != nil {
		label = "active"
		if *f.Completed {
			label = "done"
		}
	}
	if f.SearchTerm != "" {
		label += fmt.Sprintf(" matching %q", f.SearchTerm)
	}
	return label
}

func (m Model) header() string {
	th := ui.Current()
	done, pending := 0, 0
	for _, t := range m.snap.Todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s",
		th.Title.Render("Todos"),
		th.Success.Render(th.SymDone), done,
		th.Pending.Render(th.SymPending), pending,
		th.Muted.Render("["+string(m.snap.Backend)+", "+filterLabel(m.snap.Filter)+"]"),
	)
}

func (m *Model) resize() {
	// panel border and padding, plus the status line
	w, h := m.width-4, m.height-3
	if m.mode != browsing {
		h -= 4
	}
	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(w, h)
}

func (m Model) View() string {
	th := ui.Current()
	content := m.list.View()

	if m.mode != browsing {
		title := map[mode]string{adding: "Add todo", editing: "Edit todo", searching: "Search"}[m.mode]
		if m.inputErr != "" {
			title += ": " + th.Error.Render(m.inputErr)
		}
		content += "\n" + ui.PanelStyle().Render(title+"\n"+m.input.View())
	}

	status := ""
	switch {
	case m.snap.Loading:
		status = th.Muted.Render("loading...")
	case m.snap.Err != "":
		status = th.Error.Render("✖ " + m.snap.Err)
	}
	return ui.PanelStyle().Render(content + "\n" + status)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
