package memory

import (
	"context"
	"reflect"
	"testing"
)

func TestWatchlistStore_SaveNormalizes(t *testing.T) {
	store := NewWatchlistStore()
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

func TestWatchlistStore_RoundTripIdempotent(t *testing.T) {
	store := NewWatchlistStore()
	ctx := context.Background()

	if err := store.Save(ctx, []string{"tsla", "nvda", " msft "}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Saving a loaded, unmodified list must not change what loads back.
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Re-save failed: %v", err)
	}
	second, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed the list: %v -> %v", first, second)
	}
}

func TestWatchlistStore_EmptyUniverse(t *testing.T) {
	store := NewWatchlistStore()

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load = %v, want empty", got)
	}
}

func TestWatchlistStore_LoadReturnsCopy(t *testing.T) {
	store := NewWatchlistStore()
	ctx := context.Background()

	if err := store.Save(ctx, []string{"aapl", "msft"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, _ := store.Load(ctx)
	first[0] = "MUTATED"

	second, _ := store.Load(ctx)
	if second[0] != "AAPL" {
		t.Errorf("mutation of a loaded slice leaked into the store: %v", second)
	}
}
