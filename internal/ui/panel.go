package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/retos/internal/model"
)

// StatusBar splits width cells into completed, in-progress and pending
// shares and appends the completed percentage.
func StatusBar(items []model.Challenge, width int) string {
	if width < 5 {
		width = 5
	}
	total := len(items)
	if total == 0 {
		return strings.Repeat("░", width) + "   0%"
	}
	_, ip, done := Counts(items)
	nd := done * width / total
	ni := ip * width / total

	t := Current()
	seg := func(color, r string, n int) string {
		if n <= 0 {
			return ""
		}
		return C(color, strings.Repeat(r, n))
	}
	bar := seg(t.Success, "█", nd) + seg(t.Progress, "▓", ni) + seg(t.Pending, "░", width-nd-ni)
	return fmt.Sprintf("%s %3d%%", bar, done*100/total)
}

// Frame boxes lines with the current theme's border. Lines are padded to
// the widest one; escape sequences do not count toward width.
func Frame(lines []string) []string {
	t := Current()
	inner := 0
	for _, ln := range lines {
		inner = max(inner, lipgloss.Width(ln))
	}
	rule := strings.Repeat(t.H, inner+2)

	out := make([]string, 0, len(lines)+2)
	out = append(out, t.CornerTL+rule+t.CornerTR)
	for _, ln := range lines {
		out = append(out, t.V+" "+ln+strings.Repeat(" ", inner-lipgloss.Width(ln))+" "+t.V)
	}
	return append(out, t.CornerBL+rule+t.CornerBR)
}

// Panel prints Frame(lines).
func Panel(lines []string) {
	for _, ln := range Frame(lines) {
		fmt.Fprintln(stdout, ln)
	}
}
