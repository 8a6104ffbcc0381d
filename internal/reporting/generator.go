package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"intraday-lab/internal/aggregate"
	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// Generator assembles reports from run results, either handed over
// in memory or loaded back from the run-history stores.
type Generator struct {
	runs      storage.RunStore
	summaries storage.SummaryStore
	details   storage.DetailStore
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator for in-memory results.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithHistory wires the run-history stores needed by GenerateFromRun.
func (g *Generator) WithHistory(runs storage.RunStore, summaries storage.SummaryStore, details storage.DetailStore) *Generator {
	g.runs = runs
	g.summaries = summaries
	g.details = details
	return g
}

// Generate assembles the report for one finished run.
func (g *Generator) Generate(run domain.RunRecord, summaries []domain.SymbolSummary, warnings, errs []string) *Report {
	ordered := make([]domain.SymbolSummary, len(summaries))
	copy(ordered, summaries)
	sortSummaries(run.Detector, ordered)

	summary := Table{Columns: aggregate.AveragedColumns(run.Detector)}
	for _, s := range ordered {
		if row := aggregate.AveragedRow(s); row != nil {
			summary.Rows = append(summary.Rows, row)
		}
	}

	var details []SymbolDetail
	if columns := aggregate.DetailedColumns(run.Detector); columns != nil {
		for _, s := range ordered {
			rows := aggregate.DetailedRows(s)
			if len(rows) == 0 {
				continue
			}
			details = append(details, SymbolDetail{
				Symbol: s.Symbol,
				Table:  Table{Columns: columns, Rows: rows},
			})
		}
	}

	return &Report{
		GeneratedAt: g.now(),
		Run:         run,
		Warnings:    warnings,
		Errors:      errs,
		Summary:     summary,
		Details:     details,
	}
}

// GenerateFromRun loads a persisted run and rebuilds its report.
// Warnings are not part of the stored history, so replayed reports
// carry none.
func (g *Generator) GenerateFromRun(ctx context.Context, runID string) (*Report, error) {
	if g.runs == nil || g.summaries == nil || g.details == nil {
		return nil, fmt.Errorf("generate run %s: history stores not configured", runID)
	}

	run, err := g.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	rows, err := g.summaries.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load summaries for run %s: %w", runID, err)
	}

	summaries := make([]domain.SymbolSummary, 0, len(rows))
	for _, row := range rows {
		s := row.Summary()
		detail, err := g.details.GetByRunAndSymbol(ctx, runID, row.Symbol)
		if err != nil {
			return nil, fmt.Errorf("load detail for %s in run %s: %w", row.Symbol, runID, err)
		}
		domain.AttachDetail(&s, detail)
		summaries = append(summaries, s)
	}

	return g.Generate(*run, summaries, nil, nil), nil
}

// sortSummaries orders swing results by total swings descending, the
// presentation order the swing table has always used. Everything else
// sorts by symbol. Ties fall back to symbol order either way.
func sortSummaries(kind domain.DetectorKind, summaries []domain.SymbolSummary) {
	if kind == domain.DetectorSwing {
		sort.SliceStable(summaries, func(i, j int) bool {
			ti, tj := 0, 0
			if summaries[i].Swing != nil {
				ti = summaries[i].Swing.Total
			}
			if summaries[j].Swing != nil {
				tj = summaries[j].Swing.Total
			}
			if ti != tj {
				return ti > tj
			}
			return summaries[i].Symbol < summaries[j].Symbol
		})
		return
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Symbol < summaries[j].Symbol
	})
}
