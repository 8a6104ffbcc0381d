package reporting

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// RenderTable renders one table as aligned plain text for terminals.
func RenderTable(t Table) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
	return sb.String()
}

// RenderText renders the whole report as plain text: the summary table
// followed by one detail section per symbol.
func RenderText(r *Report) string {
	var sb strings.Builder

	sb.WriteString(describeWindow(r.Run))
	sb.WriteString("\n\n")

	if len(r.Summary.Rows) == 0 {
		sb.WriteString("No symbols produced results.\n")
	} else {
		sb.WriteString(RenderTable(r.Summary))
	}

	for _, d := range r.Details {
		sb.WriteString("\n")
		sb.WriteString(d.Symbol)
		sb.WriteString("\n")
		sb.WriteString(RenderTable(d.Table))
	}

	return sb.String()
}
