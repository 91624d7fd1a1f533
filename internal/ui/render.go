package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/retos/internal/model"
)

// Counts tallies challenges per status. Unknown statuses count as pending.
func Counts(items []model.Challenge) (pending, inProgress, completed int) {
	for _, it := range items {
		switch it.Status.Canonical() {
		case model.StatusCompleted:
			completed++
		case model.StatusInProgress:
			inProgress++
		default:
			pending++
		}
	}
	return
}

// Header is the one-line summary above a list.
func Header(items []model.Challenge, f model.Filter) string {
	t := Current()
	p, ip, d := Counts(items)
	h := fmt.Sprintf("%s  %s %d  %s %d  %s %d  %s %d",
		C(t.Title, "Retos"),
		C(t.Success, t.SymDone), d,
		C(t.Progress, t.SymProgress), ip,
		C(t.Pending, t.SymPending), p,
		C(t.Accent, "Total"), len(items),
	)
	if !f.Empty() {
		h += "  " + C(t.Muted, "filter: "+f.String())
	}
	return h
}

// ChallengeLine renders one challenge as a single line. Every list view,
// interactive or not, goes through it. A width of 0 disables truncation.
func ChallengeLine(c model.Challenge, width int) string {
	t := Current()
	sym, color := t.StatusMark(c.Status)
	id := fmt.Sprintf("#%-3d", c.ID)
	meta := fmt.Sprintf("[%s · %s]", c.Category, c.Difficulty)

	title := c.Title
	if width > 0 {
		// id, mark, meta and spacing take the rest
		room := width - len(id) - lipgloss.Width(sym) - lipgloss.Width(meta) - 3
		title = truncate(title, room)
	}
	titleStyled := title
	if c.Status.Canonical() == model.StatusCompleted {
		titleStyled = C(t.Muted, title)
	}
	return fmt.Sprintf("%s %s %s %s",
		C(dim, id), C(color, sym), titleStyled,
		C(t.DifficultyColor(c.Difficulty), meta))
}

// ChallengeDetail renders every field, one per line.
func ChallengeDetail(c model.Challenge) []string {
	t := Current()
	sym, color := t.StatusMark(c.Status)
	lines := []string{
		C(t.Title, fmt.Sprintf("#%d %s", c.ID, c.Title)),
		"",
		fmt.Sprintf("%s %s", C(t.Accent, "status:    "), C(color, sym+" "+c.Status.Label())),
		fmt.Sprintf("%s %s", C(t.Accent, "category:  "), c.Category),
		fmt.Sprintf("%s %s", C(t.Accent, "difficulty:"), C(t.DifficultyColor(c.Difficulty), string(c.Difficulty))),
	}
	if c.CreatedAt != nil {
		lines = append(lines, fmt.Sprintf("%s %s", C(t.Accent, "created:   "), c.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if c.UpdatedAt != nil {
		lines = append(lines, fmt.Sprintf("%s %s", C(t.Accent, "updated:   "), c.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	if d := strings.TrimSpace(c.Description); d != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(d, "\n")...)
	}
	return lines
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
