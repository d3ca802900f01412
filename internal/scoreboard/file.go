// internal/scoreboard/file.go
//
// File-backed scoreboard store: one JSON document on disk, read fully and
// rewritten fully on every append. This is the canonical backend; the whole
// scoreboard fits in a few kilobytes.
//
// A mutex serializes the read-modify-write cycle so concurrent submissions
// cannot lose each other's entries.

package scoreboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the board as an indented JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore constructs a store writing to path. The file is created on
// first append; its parent directory must be creatable.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) All(ctx context.Context) (Board, error) {
	return s.Load(ctx)
}

// Append performs the read-modify-write cycle under the lock.
func (s *FileStore) Append(ctx context.Context, size int, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.loadLocked()
	if err != nil {
		return err
	}
	key := Key(size)
	board[key] = append(board[key], e)
	return s.writeLocked(board)
}

// loadLocked reads and parses the file. Caller holds mu.
func (s *FileStore) loadLocked() (Board, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Board{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, s.path, err)
	}
	var board Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStorage, s.path, err)
	}
	if board == nil {
		board = Board{}
	}
	return board, nil
}

// writeLocked rewrites the whole document. Caller holds mu.
func (s *FileStore) writeLocked(board Board) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", ErrStorage, dir, err)
		}
	}
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStorage, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, s.path, err)
	}
	return nil
}
