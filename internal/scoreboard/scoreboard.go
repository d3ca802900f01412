// internal/scoreboard/scoreboard.go
//
// Scoreboard types and the storage interface.
//
// A Board maps puzzle size (as a string key, the persisted wire shape) to
// the entries submitted for that size, in insertion order. Ranking by turns
// is a read-side view; stores never reorder what they hold.

package scoreboard

import (
	"context"
	"errors"
	"sort"
	"strconv"
)

// Entry is one submitted score. Immutable once appended.
type Entry struct {
	Name  string `json:"name"`
	Turns int    `json:"turns"`
}

// Board maps puzzle size ("5".."8") to entries in insertion order.
type Board map[string][]Entry

// ErrStorage wraps any read, parse, or write failure of the backing store.
var ErrStorage = errors.New("scoreboard storage failure")

// Store is the persistence interface for the scoreboard.
// Implementations: FileStore (single JSON document) and SQLiteStore.
type Store interface {
	// Load reads the full board. A missing backing file/table is an empty
	// board, not an error.
	Load(ctx context.Context) (Board, error)

	// Append adds an entry to the bucket for size, creating the bucket if
	// absent, and persists before returning.
	Append(ctx context.Context, size int, e Entry) error

	// All returns the full board for read endpoints.
	All(ctx context.Context) (Board, error)
}

// Key converts a puzzle size to its bucket key.
func Key(size int) string { return strconv.Itoa(size) }

// Ranked returns a copy of the board with each bucket sorted ascending by
// turns. Ties keep insertion order (earlier submission ranks first).
func Ranked(b Board) Board {
	out := make(Board, len(b))
	for key, entries := range b {
		bucket := append([]Entry(nil), entries...)
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Turns < bucket[j].Turns })
		out[key] = bucket
	}
	return out
}
