package engine

import "github.com/hailam/tttplay/internal/board"

// Search constants
const (
	// WinScore is the score of a win on the move. A win d plies below the
	// root scores WinScore - d, so earlier wins score better and later losses
	// score less badly.
	WinScore = 10
	Infinity = 100
)

// negamax returns the score of b for turn, relative to b itself.
// A board whose line was completed by the previous mover is a loss for turn
// at depth 0; a full board with no line is a draw.
func (o *Oracle) negamax(b board.Board, turn board.Mark) int {
	o.nodes++

	if board.ComputeWinner(b) != board.Empty {
		return -WinScore
	}
	if b.Full() {
		return 0
	}

	key := b.Key(turn)
	if score, ok := o.cache.Probe(key); ok {
		return score
	}

	best := -Infinity
	for i := 0; i < board.Size; i++ {
		if !board.IsMoveValid(b, i) {
			continue
		}
		if score := o.moveScore(b, turn, i); score > best {
			best = score
		}
	}

	o.cache.Store(key, best)
	return best
}

// moveScore returns the score for turn of playing cell i on b.
// The child's score is re-based one ply down and negated for the mover.
func (o *Oracle) moveScore(b board.Board, turn board.Mark, i int) int {
	child := b.Play(i, turn)
	return -AdjustScoreFromCache(o.negamax(child, board.NextTurn(turn)), 1)
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
