package postgres

import (
	"context"
	"fmt"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore using PostgreSQL.
// The whole universe is replaced on every save, keeping the table a
// mirror of the flat-file backend.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Save normalizes and replaces the stored universe in one transaction.
func (s *WatchlistStore) Save(ctx context.Context, symbols []string) error {
	normalized := domain.NormalizeSymbols(symbols)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM watchlist`); err != nil {
		return fmt.Errorf("clear watchlist: %w", err)
	}

	query := `INSERT INTO watchlist (ordinal, symbol) VALUES ($1, $2)`
	for i, sym := range normalized {
		if _, err := tx.Exec(ctx, query, i, sym); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert watchlist symbol: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the stored universe in saved order. An empty table is
// an empty universe, not an error.
func (s *WatchlistStore) Load(ctx context.Context) ([]string, error) {
	query := `SELECT symbol FROM watchlist ORDER BY ordinal`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan watchlist symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}
	return symbols, nil
}
