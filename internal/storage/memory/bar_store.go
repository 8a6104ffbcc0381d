package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]domain.Bar // keyed by (symbol, interval, time)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]domain.Bar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, interval domain.Interval, ts time.Time) string {
	return fmt.Sprintf("%s|%s|%d", symbol, interval, ts.Unix())
}

// InsertBulk adds bars for one symbol and interval. Fails the entire
// batch on any duplicate, existing or intra-batch.
func (s *BarStore) InsertBulk(_ context.Context, symbol string, interval domain.Interval, bars []domain.Bar) error {
	if symbol == "" || !interval.Valid() {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		key := barKey(symbol, interval, b.Time)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, b := range bars {
		s.data[barKey(symbol, interval, b.Time)] = b
	}
	return nil
}

// GetRange retrieves bars within [start, end] inclusive, ordered by time ASC.
func (s *BarStore) GetRange(_ context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := fmt.Sprintf("%s|%s|", symbol, interval)
	var result []domain.Bar
	for key, bar := range s.data {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if bar.Time.Before(start) || bar.Time.After(end) {
			continue
		}
		result = append(result, bar)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})
	return result, nil
}

var _ storage.BarStore = (*BarStore)(nil)
