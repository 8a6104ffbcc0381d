package memory

import (
	"context"
	"sort"
	"sync"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// SummaryStore is an in-memory implementation of storage.SummaryStore.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SummaryRow // keyed by summary_id
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		data: make(map[string]*domain.SummaryRow),
	}
}

// InsertBulk adds summary rows atomically. Fails entire batch on any duplicate.
func (s *SummaryStore) InsertBulk(_ context.Context, rows []*domain.SummaryRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.SummaryID == "" || row.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[row.SummaryID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[row.SummaryID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[row.SummaryID] = struct{}{}
	}

	for _, row := range rows {
		copy := *row
		s.data[row.SummaryID] = &copy
	}
	return nil
}

// GetByRunID retrieves all summary rows of one run, ordered by symbol ASC.
func (s *SummaryStore) GetByRunID(_ context.Context, runID string) ([]*domain.SummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SummaryRow
	for _, row := range s.data {
		if row.RunID == runID {
			copy := *row
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result, nil
}

var _ storage.SummaryStore = (*SummaryStore)(nil)
