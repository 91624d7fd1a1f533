package ui

import (
	"strings"

	"github.com/Makepad-fr/retos/internal/model"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending, Progress string
	SymPending, SymProgress, SymDone                        string
	CornerTL, CornerTR, CornerBL, CornerBR                  string
	H, V                                                    string
}

var current Theme

func init() { SetTheme("classic") }

func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m", Progress: "\033[94m",
			SymPending: "◻", SymProgress: "◐", SymDone: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
		}
	case "mono":
		disableColor = true
		current = Theme{
			SymPending: "[ ]", SymProgress: "[~]", SymDone: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
		}
	default: // classic
		current = Theme{
			Title: bold, Muted: fgGray, Accent: fgBlue,
			Success: fgGreen, Error: fgRed, Pending: fgYellow, Progress: fgCyan,
			SymPending: "☐", SymProgress: "◔", SymDone: "☑",
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
		}
	}
}

// Expose what renderers need
func Current() Theme { return current }

// StatusMark returns the symbol and colour for st.
func (t Theme) StatusMark(st model.Status) (sym, color string) {
	switch st.Canonical() {
	case model.StatusCompleted:
		return t.SymDone, t.Success
	case model.StatusInProgress:
		return t.SymProgress, t.Progress
	case model.StatusPending:
		return t.SymPending, t.Pending
	}
	return "?", t.Muted
}

func (t Theme) DifficultyColor(d model.Difficulty) string {
	if parsed, ok := model.ParseDifficulty(string(d)); ok {
		d = parsed
	}
	switch d {
	case model.DifficultyEasy:
		return t.Success
	case model.DifficultyMedium:
		return t.Pending
	case model.DifficultyHard:
		return t.Error
	}
	return t.Muted
}
