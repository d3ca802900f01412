package scoreboard

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Append(ctx, 5, Entry{Name: "Al", Turns: 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, 5, Entry{Name: "Bea", Turns: 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, 7, Entry{Name: "Cyd", Turns: 9}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	board, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := Board{
		"5": {{Name: "Al", Turns: 3}, {Name: "Bea", Turns: 2}},
		"7": {{Name: "Cyd", Turns: 9}},
	}
	assertBoard(t, board, want)
}
