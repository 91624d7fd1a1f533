package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/retos/internal/model"
	"github.com/Makepad-fr/retos/internal/ui"
)

type formKind int

const (
	formAdd formKind = iota
	formEdit
	formFilter
)

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldDifficulty  = "difficulty"
	fieldStatus      = "status"
)

// form is a column of labelled text inputs shared by add, edit and filter.
type form struct {
	kind     formKind
	heading  string
	names    []string
	inputs   []textinput.Model
	focus    int
	original model.Challenge // edit only
	err      string
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.SetValue(value)
	return ti
}

func newAddForm() form {
	return form{
		kind:    formAdd,
		heading: "New challenge",
		names:   []string{fieldTitle, fieldDescription, fieldCategory, fieldDifficulty},
		inputs: []textinput.Model{
			newInput("Reverse a list", ""),
			newInput("What has to be done", ""),
			newInput("go, sql, algorithms...", ""),
			newInput("easy, medium or hard", ""),
		},
	}
}

func newEditForm(c model.Challenge) form {
	return form{
		kind:     formEdit,
		heading:  "Edit #" + strconv.FormatInt(c.ID, 10),
		names:    []string{fieldTitle, fieldDescription, fieldCategory, fieldDifficulty, fieldStatus},
		original: c,
		inputs: []textinput.Model{
			newInput("title", c.Title),
			newInput("description", c.Description),
			newInput("category", c.Category),
			newInput("easy, medium or hard", string(c.Difficulty)),
			newInput("pending, in_progress or completed", string(c.Status)),
		},
	}
}

func newFilterForm(cur model.Filter) form {
	return form{
		kind:    formFilter,
		heading: "Filter (empty means any)",
		names:   []string{fieldCategory, fieldDifficulty},
		inputs: []textinput.Model{
			newInput("any category", cur.Category),
			newInput("any difficulty", string(cur.Difficulty)),
		},
	}
}

func (f *form) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.inputs[f.focus].CursorEnd()
	return f.inputs[f.focus].Focus()
}

func (f *form) move(delta int) tea.Cmd {
	n := len(f.inputs)
	f.focus = (f.focus + delta + n) % n
	return f.focusCmd()
}

func (f form) last() bool { return f.focus == len(f.inputs)-1 }

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.err = ""
	return f, cmd
}

func (f form) value(name string) string {
	for i, n := range f.names {
		if n == name {
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

func (f form) draft() (model.Draft, error) {
	d := model.Draft{
		Title:       f.value(fieldTitle),
		Description: f.value(fieldDescription),
		Category:    f.value(fieldCategory),
		Difficulty:  model.Difficulty(f.value(fieldDifficulty)),
	}.Normalize()
	return d, d.Validate()
}

// patch returns only the fields that differ from the original.
func (f form) patch() (model.Patch, error) {
	var p model.Patch
	c := f.original
	if v := f.value(fieldTitle); v != c.Title {
		if v == "" {
			return p, errors.New("title is required")
		}
		p.Title = &v
	}
	if v := f.value(fieldDescription); v != c.Description {
		p.Description = &v
	}
	if v := f.value(fieldCategory); v != c.Category {
		p.Category = &v
	}
	if v := f.value(fieldDifficulty); v != string(c.Difficulty) {
		d, ok := model.ParseDifficulty(v)
		if !ok {
			return p, errors.New("unknown difficulty: " + v)
		}
		if d != c.Difficulty {
			p.Difficulty = &d
		}
	}
	if v := f.value(fieldStatus); v != string(c.Status) {
		st, ok := model.ParseStatus(v)
		if !ok {
			return p, errors.New("unknown status: " + v)
		}
		if st != c.Status {
			p.Status = &st
		}
	}
	return p, nil
}

func (f form) filter() (model.Filter, error) {
	flt := model.Filter{Category: f.value(fieldCategory)}
	if v := f.value(fieldDifficulty); v != "" {
		d, ok := model.ParseDifficulty(v)
		if !ok {
			return flt, errors.New("unknown difficulty: " + v)
		}
		flt.Difficulty = d
	}
	return flt, nil
}

// height is the number of lines view renders.
func (f form) height() int {
	h := len(f.inputs) + 2
	if f.err != "" {
		h++
	}
	return h
}

func (f form) view() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render(f.heading))
	b.WriteString("\n")
	for i, ti := range f.inputs {
		b.WriteString(ui.LabelStyle.Render(padRight(f.names[i], 12)))
		b.WriteString(ti.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString(ui.ErrorStyle.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString(ui.HelpStyle.Render("tab next • enter save on last field • ctrl+s save • esc cancel"))
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
