// Package engine implements the exact tic-tac-toe oracle and the teacher
// dataset built from it.
package engine

import (
	"strconv"

	"github.com/hailam/tttplay/internal/board"
)

// Result is the oracle's answer for one state.
type Result struct {
	Policy [board.Size]float64 // uniform over the optimal moves, zero elsewhere
	Mask   [board.Size]float64 // 1 for empty cells
	Value  float64             // outcome for the side to move, in [-1, 1]
	Score  int                 // best raw score; see WinScore
}

// Oracle is a memoized negamax solver.
// It owns its cache; the cache lives as long as the Oracle and only grows.
// An Oracle is not safe for concurrent use.
type Oracle struct {
	cache *Cache
	nodes uint64
}

// NewOracle creates an oracle with an empty cache.
func NewOracle() *Oracle {
	return &Oracle{cache: NewCache()}
}

// Policy returns the optimal-move distribution, the legality mask and the
// value of b for turn.
func (o *Oracle) Policy(b board.Board, turn board.Mark) Result {
	res := Result{Mask: b.Mask()}

	if board.ComputeWinner(b) != board.Empty {
		res.Score = -WinScore
		res.Value = -1
		return res
	}
	if b.Full() {
		return res
	}

	var scores [board.Size]int
	best := -Infinity
	for i := 0; i < board.Size; i++ {
		if !board.IsMoveValid(b, i) {
			continue
		}
		scores[i] = o.moveScore(b, turn, i)
		if scores[i] > best {
			best = scores[i]
		}
	}
	o.cache.Store(b.Key(turn), best)

	// Scores are integers, so ties are exact.
	count := 0
	for i := 0; i < board.Size; i++ {
		if board.IsMoveValid(b, i) && scores[i] == best {
			count++
		}
	}
	for i := 0; i < board.Size; i++ {
		if board.IsMoveValid(b, i) && scores[i] == best {
			res.Policy[i] = 1 / float64(count)
		}
	}

	res.Score = best
	res.Value = clamp(float64(best)/WinScore, -1, 1)
	return res
}

// BestMoves returns every optimal move for turn on b, in ascending order.
// It returns nil for finished games.
func (o *Oracle) BestMoves(b board.Board, turn board.Mark) []int {
	res := o.Policy(b, turn)
	var moves []int
	for i, p := range res.Policy {
		if p > 0 {
			moves = append(moves, i)
		}
	}
	return moves
}

// Nodes returns the number of search nodes visited so far.
func (o *Oracle) Nodes() uint64 {
	return o.nodes
}

// CacheSize returns the number of memoized states.
func (o *Oracle) CacheSize() int {
	return o.cache.Size()
}

// HitRate returns the cache hit rate as a percentage.
func (o *Oracle) HitRate() float64 {
	return o.cache.HitRate()
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ScoreToString converts a score to a human-readable string.
// Distances are in plies from the scored position.
func ScoreToString(score int) string {
	switch {
	case score > 0:
		return "Win in " + strconv.Itoa(WinScore-score)
	case score < 0:
		plies := WinScore - abs(score)
		if plies == 0 {
			return "Lost"
		}
		return "Loss in " + strconv.Itoa(plies)
	default:
		return "Draw"
	}
}
