package clickhouse

import (
	"context"
	"fmt"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// DetailStore implements storage.DetailStore using ClickHouse.
type DetailStore struct {
	conn *Conn
}

// NewDetailStore creates a new DetailStore.
func NewDetailStore(conn *Conn) *DetailStore {
	return &DetailStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DetailStore = (*DetailStore)(nil)

// InsertBulk adds detail rows. Fails the entire batch on any duplicate
// (run_id, symbol, seq), existing or intra-batch.
func (s *DetailStore) InsertBulk(ctx context.Context, rows []*domain.DetailRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID  string
		symbol string
		seq    int
	}
	seen := make(map[key]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.RunID == "" || row.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{row.RunID, row.Symbol, row.Seq}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, row := range rows {
		exists, err := s.exists(ctx, row.RunID, row.Symbol, row.Seq)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO detail_rows (
			run_id, symbol, detector, seq, session_date_ms,
			up_count, down_count, cycle_count,
			anchor_time, anchor_price,
			post_high, post_high_ms, post_low, post_low_ms,
			direction, pct_gain
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			row.RunID, row.Symbol, string(row.Detector), uint32(row.Seq), toMillis(row.SessionDate),
			uint32(row.UpCount), uint32(row.DownCount), uint32(row.CycleCount),
			row.AnchorTime.String(), row.AnchorPrice,
			row.PostHigh, toMillis(row.PostHighTime), row.PostLow, toMillis(row.PostLowTime),
			string(row.Direction), row.PctGain,
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

// GetByRunAndSymbol retrieves one symbol's detail rows for a run,
// ordered by seq ASC.
func (s *DetailStore) GetByRunAndSymbol(ctx context.Context, runID, symbol string) ([]*domain.DetailRow, error) {
	query := `
		SELECT run_id, symbol, detector, seq, session_date_ms,
			up_count, down_count, cycle_count,
			anchor_time, anchor_price,
			post_high, post_high_ms, post_low, post_low_ms,
			direction, pct_gain
		FROM detail_rows
		WHERE run_id = ? AND symbol = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, symbol)
	if err != nil {
		return nil, fmt.Errorf("query details by run and symbol: %w", err)
	}
	defer rows.Close()

	return scanDetailRows(rows)
}

// exists checks if a detail row with the given key exists.
func (s *DetailStore) exists(ctx context.Context, runID, symbol string, seq int) (bool, error) {
	query := `
		SELECT count(*) FROM detail_rows
		WHERE run_id = ? AND symbol = ? AND seq = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, symbol, uint32(seq)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanDetailRows scans multiple rows.
func scanDetailRows(rows chRows) ([]*domain.DetailRow, error) {
	var result []*domain.DetailRow

	for rows.Next() {
		var r domain.DetailRow
		var detector, anchorTime, direction string
		var seq, upCount, downCount, cycleCount uint32
		var sessionDateMs, postHighMs, postLowMs int64

		err := rows.Scan(
			&r.RunID, &r.Symbol, &detector, &seq, &sessionDateMs,
			&upCount, &downCount, &cycleCount,
			&anchorTime, &r.AnchorPrice,
			&r.PostHigh, &postHighMs, &r.PostLow, &postLowMs,
			&direction, &r.PctGain,
		)
		if err != nil {
			return nil, fmt.Errorf("scan detail row: %w", err)
		}

		r.Detector = domain.DetectorKind(detector)
		r.Direction = domain.AnchorDirection(direction)
		r.Seq = int(seq)
		r.UpCount = int(upCount)
		r.DownCount = int(downCount)
		r.CycleCount = int(cycleCount)
		r.SessionDate = fromMillis(sessionDateMs)
		r.PostHighTime = fromMillis(postHighMs)
		r.PostLowTime = fromMillis(postLowMs)

		if t, err := domain.ParseTimeOfDay(anchorTime); err == nil {
			r.AnchorTime = t
		}

		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detail rows: %w", err)
	}

	return result, nil
}
