package clickhouse

import (
	"context"
	"fmt"
	"time"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars for one symbol and interval. Fails the entire
// batch on any duplicate, existing or intra-batch.
func (s *BarStore) InsertBulk(ctx context.Context, symbol string, interval domain.Interval, bars []domain.Bar) error {
	if symbol == "" || !interval.Valid() {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(bars))
	minTs, maxTs := toMillis(bars[0].Time), toMillis(bars[0].Time)
	for _, b := range bars {
		ts := toMillis(b.Time)
		if _, exists := seen[ts]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
		if ts < minTs {
			minTs = ts
		}
		if ts > maxTs {
			maxTs = ts
		}
	}

	// Check for duplicates against existing DB rows. All bars in a batch
	// share (symbol, interval), so one range query covers them all.
	existing, err := s.existingTimestamps(ctx, symbol, interval, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for ts := range seen {
		if _, exists := existing[ts]; exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, interval, ts_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			symbol, string(interval), toMillis(b.Time),
			b.Open, b.High, b.Low, b.Close, b.Volume,
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

// GetRange retrieves bars within [start, end] inclusive, ordered by time ASC.
func (s *BarStore) GetRange(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	query := `
		SELECT ts_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ? AND ts_ms >= ? AND ts_ms <= ?
		ORDER BY ts_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, string(interval), toMillis(start), toMillis(end))
	if err != nil {
		return nil, fmt.Errorf("query bar range: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var ts int64

		err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		b.Time = fromMillis(ts)
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}

// existingTimestamps returns the stored bar times for one symbol and
// interval within [minTs, maxTs].
func (s *BarStore) existingTimestamps(ctx context.Context, symbol string, interval domain.Interval, minTs, maxTs int64) (map[int64]struct{}, error) {
	query := `
		SELECT ts_ms FROM bars
		WHERE symbol = ? AND interval = ? AND ts_ms >= ? AND ts_ms <= ?
	`

	rows, err := s.conn.Query(ctx, query, symbol, string(interval), minTs, maxTs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[int64]struct{})
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		existing[ts] = struct{}{}
	}
	return existing, rows.Err()
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}
