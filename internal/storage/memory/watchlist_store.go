package memory

import (
	"context"
	"sync"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// WatchlistStore is an in-memory implementation of storage.WatchlistStore.
type WatchlistStore struct {
	mu      sync.RWMutex
	symbols []string
}

// NewWatchlistStore creates a new in-memory watchlist store.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{}
}

// Save normalizes and replaces the stored universe.
func (s *WatchlistStore) Save(_ context.Context, symbols []string) error {
	normalized := domain.NormalizeSymbols(symbols)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = normalized
	return nil
}

// Load returns a copy of the stored universe in stored order.
func (s *WatchlistStore) Load(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out, nil
}

var _ storage.WatchlistStore = (*WatchlistStore)(nil)
