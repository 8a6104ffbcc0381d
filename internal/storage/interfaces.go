package storage

import (
	"context"
	"time"

	"intraday-lab/internal/domain"
)

// WatchlistStore persists the symbol universe.
type WatchlistStore interface {
	// Save normalizes the list (uppercase, de-duplicated, sorted) and
	// replaces the stored universe. Saving a loaded, unmodified list is
	// a byte-identical rewrite.
	Save(ctx context.Context, symbols []string) error

	// Load returns the stored universe in stored order. Blank entries
	// are tolerated and dropped. A missing universe is empty, not an error.
	Load(ctx context.Context) ([]string, error)
}

// BarStore archives fetched price bars keyed by (symbol, interval, time).
type BarStore interface {
	// InsertBulk adds bars for one symbol and interval. Re-inserting an
	// already archived bar returns ErrDuplicateKey and fails the batch.
	InsertBulk(ctx context.Context, symbol string, interval domain.Interval, bars []domain.Bar) error

	// GetRange retrieves bars within [start, end] inclusive, ordered by
	// time ASC. An empty result is a valid response.
	GetRange(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error)
}

// RunStore records completed analysis runs.
type RunStore interface {
	// Insert adds a run record. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetRecent retrieves up to limit runs, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.RunRecord, error)
}

// SummaryStore persists per-symbol summary rows of completed runs.
type SummaryStore interface {
	// InsertBulk adds summary rows. Fails the batch on any duplicate
	// summary_id.
	InsertBulk(ctx context.Context, rows []*domain.SummaryRow) error

	// GetByRunID retrieves all summary rows of one run, ordered by symbol ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.SummaryRow, error)
}

// DetailStore persists per-session detail rows of completed runs.
type DetailStore interface {
	// InsertBulk adds detail rows. Fails the batch on any duplicate
	// (run_id, symbol, seq).
	InsertBulk(ctx context.Context, rows []*domain.DetailRow) error

	// GetByRunAndSymbol retrieves one symbol's detail rows for a run,
	// ordered by seq ASC.
	GetByRunAndSymbol(ctx context.Context, runID, symbol string) ([]*domain.DetailRow, error)
}
