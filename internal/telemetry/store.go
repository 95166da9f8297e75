package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// SearchSummary is one completed go invocation's telemetry, keyed in the
// store by the root position's Zobrist hash.
type SearchSummary struct {
	Hash          uint64        `json:"hash"`
	DepthReached  int           `json:"depth_reached"`
	NodesSearched uint64        `json:"nodes_searched"`
	ScoreCP       int64         `json:"score_cp"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	HashFull      int           `json:"hash_full"`
	RecordedAt    time.Time     `json:"recorded_at"`
}

// Store wraps a BadgerDB instance mapping a hex-encoded position hash to
// its most recent SearchSummary. Only the latest summary per position is
// kept; last-writer-wins, matching the transposition table's own
// best-effort-hint philosophy (spec.md §3: "no correctness requirement
// forbids discarding any entry at any time").
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the telemetry database in the
// platform data directory.
func Open() (*Store, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dir)
}

// OpenAt opens the telemetry database at an explicit directory, primarily
// for tests that want an isolated temp directory.
func OpenAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func key(hash uint64) []byte {
	return []byte(fmt.Sprintf("search:%016x", hash))
}

// Record saves (overwriting any prior entry for the same hash) the
// telemetry of one completed search.
func (s *Store) Record(summary SearchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(summary.Hash), data)
	})
}

// Lookup retrieves the most recent telemetry recorded for a position hash.
// found is false if no search was ever recorded for that hash.
func (s *Store) Lookup(hash uint64) (summary SearchSummary, found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key(hash))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &summary)
		})
	})
	return summary, found, err
}
