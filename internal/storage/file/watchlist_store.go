// Package file implements the flat-file watchlist backend: one ticker
// per line, the format the analysis tools share with spreadsheets and
// shell pipelines.
package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// WatchlistStore persists the symbol universe to a text file.
type WatchlistStore struct {
	path string
}

// NewWatchlistStore creates a watchlist store writing to path. Parent
// directories are created on first save.
func NewWatchlistStore(path string) *WatchlistStore {
	return &WatchlistStore{path: path}
}

// Save normalizes the list and rewrites the file, one symbol per line.
// Saving a loaded, unmodified list rewrites identical bytes.
func (s *WatchlistStore) Save(_ context.Context, symbols []string) error {
	if s.path == "" {
		return storage.ErrInvalidInput
	}

	normalized := domain.NormalizeSymbols(symbols)
	var b strings.Builder
	for _, sym := range normalized {
		b.WriteString(sym)
		b.WriteByte('\n')
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, []byte(b.String()), 0o644)
}

// Load reads the stored universe in file order. Blank lines are
// dropped, entries are trimmed and upper-cased, and a missing file is
// an empty universe.
func (s *WatchlistStore) Load(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		sym := strings.ToUpper(strings.TrimSpace(line))
		if sym == "" {
			continue
		}
		out = append(out, sym)
	}
	return out, nil
}

var _ storage.WatchlistStore = (*WatchlistStore)(nil)
