package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// RenderSummary formats a completed run as a styled per-table breakdown
// with totals. Styling degrades to plain text when lipgloss detects a
// non-color terminal.
func RenderSummary(result *pgbulk.RunResult) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Load complete"))
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  run %s", result.ID)))
	b.WriteString("\n\n")

	for _, t := range result.Tables {
		line := fmt.Sprintf("  %s %s  %d rows in %s",
			SuccessStyle.Render("✓"),
			TableNameStyle.Render(t.Table),
			t.Rows,
			formatDuration(t.TruncateElapsed+t.CopyElapsed))
		if t.Rejected > 0 {
			line += ErrorStyle.Render(fmt.Sprintf("  (%d rejected)", t.Rejected))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(MessageStyle.Render(fmt.Sprintf("%d table(s), %d rows, %d rejected in %s",
		len(result.Tables), result.TotalRows, result.TotalRejected, formatDuration(result.Elapsed))))
	b.WriteString("\n")

	return b.String()
}

// formatDuration trims sub-millisecond noise from durations for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
