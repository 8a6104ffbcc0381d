package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWatchlistStore_SaveThenLoad(t *testing.T) {
	store := NewWatchlistStore(filepath.Join(t.TempDir(), "symbols.txt"))
	ctx := context.Background()

	if err := store.Save(ctx, []string{"aapl", "AAPL", "msft"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %v, want %v", got, want)
	}
}

func TestWatchlistStore_SaveIsByteIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	store := NewWatchlistStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, []string{"nvda", "tsla", "aapl"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("Re-save failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("re-saving a loaded list changed the bytes:\nfirst  %q\nsecond %q", first, second)
	}
}

func TestWatchlistStore_LoadToleratesBlanksAndCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	content := "tsla\n\n  aapl  \n\nMSFT\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := NewWatchlistStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// File order is preserved; no re-sort on load.
	want := []string{"TSLA", "AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %v, want %v", got, want)
	}
}

func TestWatchlistStore_MissingFileIsEmpty(t *testing.T) {
	store := NewWatchlistStore(filepath.Join(t.TempDir(), "absent.txt"))

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load = %v, want empty", got)
	}
}

func TestWatchlistStore_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "symbols.txt")
	store := NewWatchlistStore(path)

	if err := store.Save(context.Background(), []string{"aapl"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}
