// internal/game/engine.go
//
// Puzzle generation and guess evaluation for Clash of Cans.
// Responsibilities:
//   - Create new puzzles with a hidden solution and a scrambled start.
//   - Enforce the minimum-scramble rule: the initial arrangement has exactly
//     one can in its correct position, so a fresh puzzle is neither solved
//     nor gives away the solution through its match count.
//   - Score arrangements against the solution (positional matches).
//   - Apply drag/drop swaps while preserving the permutation invariant.
//
// Notes:
//   - Scoring is a pure positional comparison; no per-symbol bookkeeping is
//     needed because symbols within a puzzle are distinct.
//   - The resample loop terminates in a handful of iterations for sizes up
//     to 8; the attempt cap only guards against pathological RNG behavior.
package game

import (
	"errors"
	"fmt"
	"math/rand"
)

// maxScrambleAttempts bounds the initial-arrangement resample loop.
const maxScrambleAttempts = 10000

var (
	// ErrInvalidSize reports a puzzle size outside [MinSize, MaxSize].
	ErrInvalidSize = errors.New("invalid puzzle size")

	// ErrGenerationFailed reports that no acceptable scramble was found
	// within the attempt cap.
	ErrGenerationFailed = errors.New("puzzle generation failed")
)

// Generate constructs a new puzzle of the given size.
// The solution is a uniformly random permutation of the first `size` palette
// symbols; the arrangement is resampled until exactly one position matches.
func Generate(size int) (*Puzzle, error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidSize, size, MinSize, MaxSize)
	}

	solution := shuffled(Palette[:size])

	for i := 0; i < maxScrambleAttempts; i++ {
		arr := shuffled(solution)
		if CountMatches(arr, solution) == 1 {
			return &Puzzle{Size: size, Solution: solution, Arrangement: arr}, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid scramble after %d attempts", ErrGenerationFailed, maxScrambleAttempts)
}

// CountMatches returns the number of positions where a and b hold the same
// symbol. Pure; O(len).
func CountMatches(a, b []Symbol) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	count := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			count++
		}
	}
	return count
}

// IsWin reports whether the arrangement equals the solution exactly.
func IsWin(arrangement, solution []Symbol) bool {
	return len(arrangement) == len(solution) && CountMatches(arrangement, solution) == len(solution)
}

// Swap exchanges the cans at positions i and j, mirroring the client's
// drag/drop move. Out-of-range indexes are an error; the arrangement stays a
// permutation of the solution either way.
func (p *Puzzle) Swap(i, j int) error {
	if i < 0 || i >= len(p.Arrangement) || j < 0 || j >= len(p.Arrangement) {
		return fmt.Errorf("swap out of range: %d, %d", i, j)
	}
	p.Arrangement[i], p.Arrangement[j] = p.Arrangement[j], p.Arrangement[i]
	return nil
}

// Solved reports whether the puzzle's current arrangement wins.
func (p *Puzzle) Solved() bool {
	return IsWin(p.Arrangement, p.Solution)
}

// shuffled returns a fresh Fisher-Yates shuffle of symbols.
func shuffled(symbols []Symbol) []Symbol {
	out := make([]Symbol, len(symbols))
	copy(out, symbols)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
