// Package tui is the interactive list view. It renders whatever the
// Synchronizer last reported and turns keys into Synchronizer calls.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/retos/internal/listsync"
	"github.com/Makepad-fr/retos/internal/model"
	"github.com/Makepad-fr/retos/internal/ui"
)

// listItem adapts a Challenge to bubbles/list.Item
type listItem struct {
	c model.Challenge
}

func (i listItem) Title() string       { return i.c.Title }
func (i listItem) Description() string { return i.c.Description }
func (i listItem) FilterValue() string { return i.c.Title + " " + i.c.Category }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+ui.ChallengeLine(it.c, m.Width()-2))
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirm
)

// syncMsg carries a Synchronizer event into the update loop.
type syncMsg listsync.Event

// doneMsg marks the end of one dispatched action.
type doneMsg struct{}

type keyMap struct {
	status, add, edit, del, filter, clear, reload key.Binding
}

var keys = keyMap{
	status: key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s", "status")),
	add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	del:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filter")),
	reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.status, k.add, k.edit, k.del, k.filter, k.clear, k.reload}
}

type modelTUI struct {
	ctx  context.Context
	sync *listsync.Synchronizer

	list    list.Model
	spin    spinner.Model
	pending int // actions in flight

	mode    mode
	form    form
	confirm model.Challenge

	notice    string
	noticeErr bool
	lastOp    listsync.Op

	width, height int
}

func newModel(ctx context.Context, s *listsync.Synchronizer) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Retos"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.Styles.PaginationStyle = ui.HelpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("challenge", "challenges")
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	return modelTUI{
		ctx:    ctx,
		sync:   s,
		list:   l,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:  80,
		height: 24,
	}
}

// Run starts the program and feeds it the Synchronizer's events until the
// user quits.
func Run(ctx context.Context, s *listsync.Synchronizer) error {
	p := tea.NewProgram(newModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	s.Subscribe(func(ev listsync.Event) { p.Send(syncMsg(ev)) })
	_, err := p.Run()
	return err
}

func (m modelTUI) Init() tea.Cmd {
	s, ctx := m.sync, m.ctx
	return tea.Batch(func() tea.Msg {
		_ = s.Load(ctx)
		return nil
	}, m.spin.Tick)
}

// dispatch runs fn off the update loop. Results arrive as syncMsg.
func (m modelTUI) dispatch(fn func(ctx context.Context) error) (modelTUI, tea.Cmd) {
	m.pending++
	ctx := m.ctx
	return m, func() tea.Msg {
		_ = fn(ctx)
		return doneMsg{}
	}
}

func (m modelTUI) selected() (model.Challenge, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.c, ok
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case syncMsg:
		return m.applyEvent(listsync.Event(msg))
	case doneMsg:
		if m.pending > 0 {
			m.pending--
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirm:
		return m.updateConfirm(msg)
	}
	return m.updateList(msg)
}

func (m modelTUI) applyEvent(ev listsync.Event) (tea.Model, tea.Cmd) {
	items := make([]list.Item, 0, len(ev.Items))
	for _, c := range ev.Items {
		items = append(items, listItem{c: c})
	}
	cmd := m.list.SetItems(items)
	m.list.Title = ui.Header(ev.Items, ev.Filter)

	switch {
	case ev.Err != nil:
		m.notice, m.noticeErr = listsync.UserMessage(ev.Err), true
	case ev.Notice != "":
		m.notice, m.noticeErr = ev.Notice, false
	case ev.Op == listsync.OpLoad && ev.ID == 0:
		// keep "created"/"deleted" visible through the reload that follows
		if m.lastOp != listsync.OpCreate && m.lastOp != listsync.OpRemove {
			m.notice, m.noticeErr = fmt.Sprintf("%d challenges loaded", len(ev.Items)), false
		}
	}
	m.lastOp = ev.Op
	if ev.Err != nil {
		m.lastOp = ""
	}
	return m, cmd
}

func (m modelTUI) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	// while the list's own filter prompt is open every key belongs to it
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case k.String() == "q" || k.String() == "esc" || k.String() == "ctrl+c":
			if k.String() == "esc" && m.list.FilterState() == list.FilterApplied {
				break
			}
			return m, tea.Quit
		case key.Matches(k, keys.status):
			c, ok := m.selected()
			if !ok {
				return m, nil
			}
			next := c.Status.Next()
			return m.dispatch(func(ctx context.Context) error {
				_, err := m.sync.UpdateStatus(ctx, c.ID, next)
				return err
			})
		case key.Matches(k, keys.add):
			m.form = newAddForm()
			m.mode = modeForm
			return m, m.form.focusCmd()
		case key.Matches(k, keys.edit):
			c, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.form = newEditForm(c)
			m.mode = modeForm
			return m, m.form.focusCmd()
		case key.Matches(k, keys.del):
			c, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.confirm = c
			m.mode = modeConfirm
			return m, nil
		case key.Matches(k, keys.filter):
			m.form = newFilterForm(m.sync.Filter())
			m.mode = modeForm
			return m, m.form.focusCmd()
		case key.Matches(k, keys.clear):
			return m.dispatch(m.sync.ClearFilter)
		case key.Matches(k, keys.reload):
			return m.dispatch(m.sync.Load)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	target := m.confirm
	switch strings.ToLower(k.String()) {
	case "y":
		m.mode = modeList
		return m.dispatch(func(ctx context.Context) error {
			// the user already answered; this guard only passes the answer on
			return m.sync.Remove(ctx, target.ID, func(model.Challenge) bool { return true })
		})
	case "n", "esc", "q":
		m.mode = modeList
		m.notice, m.noticeErr = "not deleted", false
	}
	return m, nil
}

func (m modelTUI) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	switch k.String() {
	case "esc":
		m.mode = modeList
		return m, nil
	case "tab", "down":
		return m, m.form.move(1)
	case "shift+tab", "up":
		return m, m.form.move(-1)
	case "enter":
		if !m.form.last() {
			return m, m.form.move(1)
		}
		return m.submitForm()
	case "ctrl+s":
		return m.submitForm()
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m modelTUI) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	switch f.kind {
	case formAdd:
		d, err := f.draft()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.mode = modeList
		return m.dispatch(func(ctx context.Context) error {
			_, err := m.sync.Create(ctx, d)
			return err
		})
	case formEdit:
		p, err := f.patch()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.mode = modeList
		if p.Empty() {
			m.notice, m.noticeErr = "nothing changed", false
			return m, nil
		}
		id := f.original.ID
		return m.dispatch(func(ctx context.Context) error {
			_, err := m.sync.Update(ctx, id, p)
			return err
		})
	case formFilter:
		flt, err := f.filter()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.mode = modeList
		return m.dispatch(func(ctx context.Context) error {
			return m.sync.ApplyFilter(ctx, flt.Category, flt.Difficulty)
		})
	}
	return m, nil
}

func (m *modelTUI) resize() {
	h := m.height - 4
	if m.mode != modeList {
		h -= m.form.height() + 2
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

func (m modelTUI) View() string {
	m.resize()
	content := m.list.View()

	switch m.mode {
	case modeForm:
		content += "\n" + ui.PanelString(m.form.view())
	case modeConfirm:
		q := fmt.Sprintf("Delete #%d %q? %s", m.confirm.ID, m.confirm.Title, ui.HelpStyle.Render("[y/N]"))
		content += "\n" + ui.PanelString(ui.ErrorStyle.Render("Confirm")+"\n"+q)
	}

	status := m.notice
	if m.noticeErr {
		status = ui.ErrorStyle.Render("✖ " + status)
	} else if status != "" {
		status = ui.SuccessStyle.Render("✔ " + status)
	}
	if m.pending > 0 {
		status = m.spin.View() + " " + status
	}
	return ui.PanelString(content + "\n" + status)
}
