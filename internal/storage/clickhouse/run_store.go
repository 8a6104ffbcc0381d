package clickhouse

import (
	"context"
	"fmt"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// RunStore implements storage.RunStore using ClickHouse.
type RunStore struct {
	conn *Conn
}

// NewRunStore creates a new RunStore.
func NewRunStore(conn *Conn) *RunStore {
	return &RunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a run record. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.RunRecord) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO runs (
			run_id, detector, threshold, interval, period,
			start_ms, end_ms, anchor_time,
			started_at_ms, finished_at_ms, analyzed, skipped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		run.RunID, string(run.Detector), run.Threshold, string(run.Interval), string(run.Period),
		toMillis(run.Start), toMillis(run.End), run.AnchorTime.String(),
		toMillis(run.StartedAt), toMillis(run.FinishedAt),
		uint32(run.Analyzed), uint32(run.Skipped),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := runSelect + `
		WHERE run_id = ?
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run by id: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// GetRecent retrieves up to limit runs, newest first.
func (s *RunStore) GetRecent(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := runSelect + `
		ORDER BY started_at_ms DESC, run_id ASC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// exists checks if a run with the given id exists.
func (s *RunStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `
		SELECT count(*) FROM runs
		WHERE run_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const runSelect = `
	SELECT run_id, detector, threshold, interval, period,
		start_ms, end_ms, anchor_time,
		started_at_ms, finished_at_ms, analyzed, skipped
	FROM runs
`

// scanRuns scans multiple rows.
func scanRuns(rows chRows) ([]*domain.RunRecord, error) {
	var runs []*domain.RunRecord

	for rows.Next() {
		var r domain.RunRecord
		var detector, interval, period, anchorTime string
		var startMs, endMs, startedAtMs, finishedAtMs int64
		var analyzed, skipped uint32

		err := rows.Scan(
			&r.RunID, &detector, &r.Threshold, &interval, &period,
			&startMs, &endMs, &anchorTime,
			&startedAtMs, &finishedAtMs, &analyzed, &skipped,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		r.Detector = domain.DetectorKind(detector)
		r.Interval = domain.Interval(interval)
		r.Period = domain.Period(period)
		r.Start = fromMillis(startMs)
		r.End = fromMillis(endMs)
		r.StartedAt = fromMillis(startedAtMs)
		r.FinishedAt = fromMillis(finishedAtMs)
		r.Analyzed = int(analyzed)
		r.Skipped = int(skipped)

		if t, err := domain.ParseTimeOfDay(anchorTime); err == nil {
			r.AnchorTime = t
		}

		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
