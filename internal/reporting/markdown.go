package reporting

import (
	"fmt"
	"strings"
	"time"

	"intraday-lab/internal/domain"
)

// RenderMarkdown renders the report as a Markdown document.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s Analysis Report\n\n", titleCase(string(r.Run.Detector))))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.Run.RunID))
	sb.WriteString(fmt.Sprintf("%s | Analyzed: %d | Skipped: %d\n\n",
		describeWindow(r.Run), r.Run.Analyzed, r.Run.Skipped))

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Skipped symbols
	if len(r.Errors) > 0 {
		sb.WriteString("## Skipped Symbols\n\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	if len(r.Summary.Rows) > 0 {
		writeMarkdownTable(&sb, r.Summary)
	} else {
		sb.WriteString("No symbols produced results.\n")
	}
	sb.WriteString("\n")

	// Per-session detail
	if len(r.Details) > 0 {
		sb.WriteString("## Session Detail\n\n")
		for _, d := range r.Details {
			sb.WriteString(fmt.Sprintf("### %s\n\n", d.Symbol))
			writeMarkdownTable(&sb, d.Table)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeMarkdownTable(sb *strings.Builder, t Table) {
	sb.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")

	separators := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		separators[i] = strings.Repeat("-", len(col))
	}
	sb.WriteString("|" + strings.Join(separators, "|") + "|\n")

	for _, row := range t.Rows {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

// describeWindow renders the run's date window: the explicit range, a
// rolling period, or the anchor time for anchor runs.
func describeWindow(run domain.RunRecord) string {
	var parts []string
	switch {
	case !run.Start.IsZero() && !run.End.IsZero() && !run.Start.Equal(run.End):
		parts = append(parts, fmt.Sprintf("Range: %s to %s",
			run.Start.Format("2006-01-02"), run.End.Format("2006-01-02")))
	case !run.Start.IsZero():
		parts = append(parts, fmt.Sprintf("Session: %s", run.Start.Format("2006-01-02")))
	case run.Period != "":
		parts = append(parts, fmt.Sprintf("Period: %s", run.Period))
	}
	parts = append(parts, fmt.Sprintf("Interval: %s", run.Interval))
	if run.Threshold > 0 {
		parts = append(parts, fmt.Sprintf("Threshold: %g%%", run.Threshold))
	}
	if run.Detector == domain.DetectorAnchor {
		parts = append(parts, fmt.Sprintf("Anchor: %s", run.AnchorTime))
	}
	return strings.Join(parts, " | ")
}
