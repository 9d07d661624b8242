// Package tui is the terminal frontend of toybox. It renders an App's toys
// as a selectable list of cards with an inline creation form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pthm/toybox/internal/app"
	"github.com/pthm/toybox/internal/toy"
)

// Options configures the terminal UI.
type Options struct {
	Title string

	// ShowErrors displays failed operations in a status line. Without it a
	// failed action silently does nothing.
	ShowErrors bool
}

// Form labels.
const (
	formHeading       = "Create a toy!"
	namePlaceholder   = "Enter a toy's name..."
	imagePlaceholder  = "Enter a toy's image URL..."
	submitLabel       = "Create New Toy"
	toggleFormLabel   = "Add a Toy"
	defaultTitle      = "Andy's Toy Collection"
	inputCharLimit    = 500
	formHeightReserve = 7
)

type keyMap struct {
	Toggle key.Binding
	Like   key.Binding
	Delete key.Binding
	Quit   key.Binding
	Submit key.Binding
	Next   key.Binding
	Close  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", strings.ToLower(toggleFormLabel))),
		Like:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "donate")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create")),
		Next:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close form")),
	}
}

// cardItem adapts a toy to bubbles/list.Item.
type cardItem struct {
	toy toy.Toy
}

func (i cardItem) Title() string       { return i.toy.Name }
func (i cardItem) Description() string { return fmt.Sprintf("%d Likes", i.toy.Likes) }
func (i cardItem) FilterValue() string { return i.toy.Name }

// cardDelegate renders a toy as a two line card.
type cardDelegate struct{}

func (d cardDelegate) Height() int                               { return 2 }
func (d cardDelegate) Spacing() int                              { return 1 }
func (d cardDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d cardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(cardItem)
	if !ok {
		return
	}

	prefix := "  "
	name := it.toy.Name
	if index == m.Index() {
		prefix = selectedStyle.Render(">") + " "
		name = titleStyle.Render(name)
	}

	image := it.toy.Image
	if image == "" {
		image = toy.PlaceholderImage
	}
	likes := likesStyle.Render(fmt.Sprintf("%s %s", heart, it.Description()))

	fmt.Fprintf(w, "%s%s\n  %s  %s", prefix, name, likes, mutedStyle.Render(image))
}

// stateMsg carries a new App state from the subscription.
type stateMsg struct {
	state app.State
}

// closedMsg reports that the App was closed underneath the UI.
type closedMsg struct{}

// taskMsg reports a completed App task.
type taskMsg struct {
	op  app.Op
	err error
}

// Model is the bubbletea model over one App.
type Model struct {
	app     *app.App
	updates <-chan app.State
	cancel  func()
	opts    Options
	keys    keyMap

	list     list.Model
	showForm bool
	inputs   []textinput.Model
	focus    int
	status   string
	loaded   bool
	width    int
	height   int
}

// New builds a Model subscribed to a. Call Close (or use Run) to release the
// subscription.
func New(a *app.App, opts Options) Model {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}

	keys := defaultKeyMap()

	l := list.New(nil, cardDelegate{}, 0, 0)
	l.Title = opts.Title
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("toy", "toys")
	l.SetFilteringEnabled(false)
	// l and d belong to the card actions.
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "pgdown"), key.WithHelp("→/pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "pgup"), key.WithHelp("←/pgup", "prev page"))
	l.KeyMap.Quit = keys.Quit
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{keys.Toggle, keys.Like, keys.Delete} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{keys.Toggle, keys.Like, keys.Delete} }

	name := textinput.New()
	name.Prompt = "name  > "
	name.Placeholder = namePlaceholder
	name.CharLimit = inputCharLimit

	image := textinput.New()
	image.Prompt = "image > "
	image.Placeholder = imagePlaceholder
	image.CharLimit = inputCharLimit

	updates, cancel := a.Subscribe()
	return Model{
		app:     a,
		updates: updates,
		cancel:  cancel,
		opts:    opts,
		keys:    keys,
		list:    l,
		inputs:  []textinput.Model{name, image},
		width:   80,
		height:  24,
	}
}

// Close releases the state subscription.
func (m Model) Close() {
	m.cancel()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), waitForTask(m.app.Loaded()))
}

func waitForState(updates <-chan app.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return stateMsg{state: s}
	}
}

func waitForTask(task *app.Task) tea.Cmd {
	return func() tea.Msg {
		<-task.Done()
		return taskMsg{op: task.Op(), err: task.Err()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case stateMsg:
		cmd := m.applyState(msg.state)
		return m, tea.Batch(cmd, waitForState(m.updates))

	case closedMsg:
		return m, tea.Quit

	case taskMsg:
		if msg.op == app.OpLoad {
			m.loaded = true
		}
		m.report(msg)
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.showForm {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) applyState(s app.State) tea.Cmd {
	items := make([]list.Item, 0, len(s.Toys))
	for _, t := range s.Toys {
		items = append(items, cardItem{toy: t})
	}
	cmd := m.list.SetItems(items)

	if s.ShowForm != m.showForm {
		m.setFormVisible(s.ShowForm)
	}
	return cmd
}

func (m *Model) report(msg taskMsg) {
	switch {
	case msg.err == nil:
		m.status = ""
	case errors.Is(msg.err, app.ErrClosed):
	case m.opts.ShowErrors:
		m.status = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.setFormVisible(m.app.ToggleForm())
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Like):
		if t, ok := m.selected(); ok {
			return m, waitForTask(m.app.LikeToy(t.ID))
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			return m, waitForTask(m.app.DeleteToy(t.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Close):
		m.setFormVisible(m.app.ToggleForm())
		return m, nil

	case key.Matches(msg, m.keys.Next):
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.inputs) - 1
		}
		m.focusInput((m.focus + step) % len(m.inputs))
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Submit):
		draft := toy.NewDraft(m.inputs[0].Value(), m.inputs[1].Value())
		task := m.app.AddToy(draft)
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
		m.focusInput(0)
		return m, waitForTask(task)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFormVisible(show bool) {
	m.showForm = show
	if show {
		m.focusInput(0)
	} else {
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
	}
	m.resize()
}

func (m *Model) focusInput(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m Model) selected() (toy.Toy, bool) {
	it, ok := m.list.SelectedItem().(cardItem)
	if !ok {
		return toy.Toy{}, false
	}
	return it.toy, true
}

func (m *Model) resize() {
	h := m.height - 4
	if m.showForm {
		h -= formHeightReserve
	}
	if m.status != "" {
		h--
	}
	m.list.SetSize(max(m.width-4, 0), max(h, 0))
}

func (m Model) View() string {
	var b strings.Builder

	if !m.loaded && len(m.list.Items()) == 0 {
		b.WriteString(titleStyle.Render(m.opts.Title) + "\n\n" + mutedStyle.Render("Loading toys..."))
	} else {
		b.WriteString(m.list.View())
	}

	if m.showForm {
		lines := []string{
			accentStyle.Render(formHeading),
			m.inputs[0].View(),
			m.inputs[1].View(),
			helpStyle.Render(fmt.Sprintf("enter: %s • tab: next field • esc: close", submitLabel)),
		}
		b.WriteString("\n" + formStyle.Render(strings.Join(lines, "\n")))
	}

	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render("✖ "+m.status))
	}

	return panelStyle.Render(b.String())
}

// Run drives a Model over a until the user quits, ctx is cancelled or the
// App is closed.
func Run(ctx context.Context, a *app.App, opts Options, progOpts ...tea.ProgramOption) error {
	m := New(a, opts)
	defer m.Close()

	progOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, progOpts...)
	_, err := tea.NewProgram(m, progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

var _ tea.Model = Model{}
