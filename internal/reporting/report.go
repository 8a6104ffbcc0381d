package reporting

import (
	"time"

	"intraday-lab/internal/domain"
)

// Report is the renderable outcome of one analysis run: run metadata
// plus pre-projected tables. Renderers only format; every value is
// already a string by the time it lands here.
type Report struct {
	GeneratedAt time.Time
	Run         domain.RunRecord
	Warnings    []string
	Errors      []string

	// Summary holds one row per analyzed symbol. Swing rows are
	// ordered by total swings descending, every other detector by
	// symbol ascending.
	Summary Table

	// Details holds the per-session drill-down, one section per
	// symbol in summary order. Empty for the dip scanner, which keeps
	// no session rows.
	Details []SymbolDetail
}

// Table is a renderer-agnostic grid. Rows match Columns in width.
type Table struct {
	Columns []string
	Rows    [][]string
}

// SymbolDetail is the drill-down section for one symbol.
type SymbolDetail struct {
	Symbol string
	Table  Table
}
