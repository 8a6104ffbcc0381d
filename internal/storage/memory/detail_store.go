package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// DetailStore is an in-memory implementation of storage.DetailStore.
type DetailStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DetailRow // keyed by (run_id, symbol, seq)
}

// NewDetailStore creates a new in-memory detail store.
func NewDetailStore() *DetailStore {
	return &DetailStore{
		data: make(map[string]*domain.DetailRow),
	}
}

// detailKey generates a unique key for a detail row.
func detailKey(runID, symbol string, seq int) string {
	return fmt.Sprintf("%s|%s|%d", runID, symbol, seq)
}

// InsertBulk adds detail rows atomically. Fails entire batch on any duplicate.
func (s *DetailStore) InsertBulk(_ context.Context, rows []*domain.DetailRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.RunID == "" || row.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := detailKey(row.RunID, row.Symbol, row.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, row := range rows {
		copy := *row
		s.data[detailKey(row.RunID, row.Symbol, row.Seq)] = &copy
	}
	return nil
}

// GetByRunAndSymbol retrieves one symbol's detail rows for a run,
// ordered by seq ASC.
func (s *DetailStore) GetByRunAndSymbol(_ context.Context, runID, symbol string) ([]*domain.DetailRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DetailRow
	for _, row := range s.data {
		if row.RunID == runID && row.Symbol == symbol {
			copy := *row
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

var _ storage.DetailStore = (*DetailStore)(nil)
