package telemetry

import (
	"os"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "chessplay-telemetry-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := OpenAt(dir)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndLookup(t *testing.T) {
	store := openTestStore(t)

	const hash uint64 = 0x0123456789abcdef
	_, found, err := store.Lookup(hash)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatal("expected miss before any Record")
	}

	want := SearchSummary{
		Hash:          hash,
		DepthReached:  8,
		NodesSearched: 123456,
		ScoreCP:       42,
		Elapsed:       500 * time.Millisecond,
		HashFull:      17,
		RecordedAt:    time.Unix(1700000000, 0).UTC(),
	}
	if err := store.Record(want); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, found, err := store.Lookup(hash)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("expected hit after Record")
	}
	if got.DepthReached != want.DepthReached || got.NodesSearched != want.NodesSearched ||
		got.ScoreCP != want.ScoreCP || got.HashFull != want.HashFull {
		t.Errorf("Lookup() = %+v, want %+v", got, want)
	}
}

func TestRecordOverwritesPriorSummary(t *testing.T) {
	store := openTestStore(t)
	const hash uint64 = 7

	if err := store.Record(SearchSummary{Hash: hash, DepthReached: 4}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(SearchSummary{Hash: hash, DepthReached: 9}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, found, err := store.Lookup(hash)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("expected hit")
	}
	if got.DepthReached != 9 {
		t.Errorf("DepthReached = %d, want 9 (last writer wins)", got.DepthReached)
	}
}
