// internal/game/types.go
//
// Core type definitions for the Clash of Cans puzzle engine.
// Defines:
//   - Symbol: the color identity of a single can.
//   - Puzzle: state for one game instance (hidden solution + visible arrangement).

package game

// Symbol identifies a can by color. Identity only; no internal structure.
type Symbol string

// Palette is the fixed symbol alphabet. Puzzles of size N use its first N entries.
var Palette = []Symbol{"red", "green", "blue", "orange", "purple", "yellow", "pink", "teal"}

const (
	// MinSize and MaxSize bound the puzzle size, limited by the palette.
	MinSize = 5
	MaxSize = 8
)

// Puzzle holds the state of a single game instance.
type Puzzle struct {
	Size        int      // Number of cans (MinSize..MaxSize).
	Solution    []Symbol // Hidden target ordering. Never sent to the client.
	Arrangement []Symbol // Current visible ordering; always a permutation of Solution.
}
