package recipe

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	transitionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	noteStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	footerStyle     = lipgloss.NewStyle().Bold(true)
)

// StyledCueSheet renders the same content as CueSheet but with terminal
// styling (bold track headers, dimmed transition lines), intended for
// interactive TTY output. The plain CueSheet output is what gets written
// to a file.
func StyledCueSheet(spec RendererSpec) string {
	var b strings.Builder
	for i, t := range spec.Tracks {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%2d. %-28s - %-20s", i+1, t.Artist, t.Title)))
		b.WriteString(fmt.Sprintf("  key %-4s  %5.1f BPM\n", t.CamelotKey, t.BPM))
		if i < len(spec.Transitions) {
			tr := spec.Transitions[i]
			b.WriteString(transitionStyle.Render(fmt.Sprintf("    -> %s at %s (duration %.1fs, harmonic %d, Δbpm %.1f)",
				tr.Style, formatClock(tr.FromCueSec), tr.DurationSec, tr.HarmonicScore, tr.BPMDelta)))
			b.WriteString("\n")
			for _, note := range tr.Notes {
				b.WriteString(noteStyle.Render("       note: " + note))
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("total: %s  difficulty: %s  loudness target: %.0f LUFS",
		formatClock(spec.TotalDuration), spec.Difficulty, spec.Loudness.TargetLUFS)))
	b.WriteString("\n")
	return b.String()
}
