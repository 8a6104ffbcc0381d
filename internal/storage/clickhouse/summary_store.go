package clickhouse

import (
	"context"
	"fmt"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// SummaryStore implements storage.SummaryStore using ClickHouse.
type SummaryStore struct {
	conn *Conn
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(conn *Conn) *SummaryStore {
	return &SummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

// InsertBulk adds summary rows. Fails the entire batch on any duplicate
// summary_id, existing or intra-batch.
func (s *SummaryStore) InsertBulk(ctx context.Context, rows []*domain.SummaryRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.SummaryID == "" || row.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[row.SummaryID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[row.SummaryID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, row := range rows {
		exists, err := s.exists(ctx, row.SummaryID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO summary_rows (
			summary_id, run_id, symbol, detector, session_count,
			up_total, down_total, swing_total, volatility,
			cycle_total, avg_per_day,
			avg_anchor_price, avg_post_high, avg_post_low, direction, avg_pct_gain,
			ref_date_ms, reference_price, session_high, drop_pct,
			created_at_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			row.SummaryID, row.RunID, row.Symbol, string(row.Detector), uint32(row.SessionCount),
			uint32(row.UpTotal), uint32(row.DownTotal), uint32(row.SwingTotal), string(row.Volatility),
			uint32(row.CycleTotal), row.AvgPerDay,
			row.AvgAnchorPrice, row.AvgPostHigh, row.AvgPostLow, string(row.Direction), row.AvgPctGain,
			toMillis(row.RefDate), row.ReferencePrice, row.SessionHigh, row.DropPct,
			toMillis(row.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all summary rows of one run, ordered by symbol ASC.
func (s *SummaryStore) GetByRunID(ctx context.Context, runID string) ([]*domain.SummaryRow, error) {
	query := `
		SELECT summary_id, run_id, symbol, detector, session_count,
			up_total, down_total, swing_total, volatility,
			cycle_total, avg_per_day,
			avg_anchor_price, avg_post_high, avg_post_low, direction, avg_pct_gain,
			ref_date_ms, reference_price, session_high, drop_pct,
			created_at_ms
		FROM summary_rows
		WHERE run_id = ?
		ORDER BY symbol ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query summaries by run id: %w", err)
	}
	defer rows.Close()

	return scanSummaryRows(rows)
}

// exists checks if a summary row with the given id exists.
func (s *SummaryStore) exists(ctx context.Context, summaryID string) (bool, error) {
	query := `
		SELECT count(*) FROM summary_rows
		WHERE summary_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, summaryID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSummaryRows scans multiple rows.
func scanSummaryRows(rows chRows) ([]*domain.SummaryRow, error) {
	var result []*domain.SummaryRow

	for rows.Next() {
		var r domain.SummaryRow
		var detector, volatility, direction string
		var sessionCount, upTotal, downTotal, swingTotal, cycleTotal uint32
		var refDateMs, createdAtMs int64

		err := rows.Scan(
			&r.SummaryID, &r.RunID, &r.Symbol, &detector, &sessionCount,
			&upTotal, &downTotal, &swingTotal, &volatility,
			&cycleTotal, &r.AvgPerDay,
			&r.AvgAnchorPrice, &r.AvgPostHigh, &r.AvgPostLow, &direction, &r.AvgPctGain,
			&refDateMs, &r.ReferencePrice, &r.SessionHigh, &r.DropPct,
			&createdAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}

		r.Detector = domain.DetectorKind(detector)
		r.Volatility = domain.Volatility(volatility)
		r.Direction = domain.AnchorDirection(direction)
		r.SessionCount = int(sessionCount)
		r.UpTotal = int(upTotal)
		r.DownTotal = int(downTotal)
		r.SwingTotal = int(swingTotal)
		r.CycleTotal = int(cycleTotal)
		r.RefDate = fromMillis(refDateMs)
		r.CreatedAt = fromMillis(createdAtMs)

		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return result, nil
}
