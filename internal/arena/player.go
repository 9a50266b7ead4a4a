package arena

import (
	"math/rand"

	"github.com/hailam/tttplay/internal/board"
	"github.com/hailam/tttplay/internal/engine"
	"github.com/hailam/tttplay/internal/nn"
)

// Opponent chooses a move for the side to move. Returning an illegal move
// forfeits the game.
type Opponent interface {
	Move(b board.Board, turn board.Mark) int
}

// OpponentFunc adapts a function to Opponent.
type OpponentFunc func(b board.Board, turn board.Mark) int

func (f OpponentFunc) Move(b board.Board, turn board.Mark) int { return f(b, turn) }

// RandomOpponent plays a uniformly random legal move.
type RandomOpponent struct {
	rnd *rand.Rand
}

func NewRandomOpponent(seed int64) *RandomOpponent {
	return &RandomOpponent{rnd: rand.New(rand.NewSource(seed))}
}

func (r *RandomOpponent) Move(b board.Board, turn board.Mark) int {
	var legal = b.LegalMoves()
	if len(legal) == 0 {
		return board.NoMove
	}
	return legal[r.rnd.Intn(len(legal))]
}

// PerfectOpponent plays a random move among the oracle's optimal ones.
type PerfectOpponent struct {
	oracle *engine.Oracle
	rnd    *rand.Rand
}

func NewPerfectOpponent(seed int64) *PerfectOpponent {
	return &PerfectOpponent{
		oracle: engine.NewOracle(),
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

func (p *PerfectOpponent) Move(b board.Board, turn board.Mark) int {
	var best = p.oracle.BestMoves(b, turn)
	if len(best) == 0 {
		return board.NoMove
	}
	return best[p.rnd.Intn(len(best))]
}

// NetworkPlayer plays the network's most probable legal move.
type NetworkPlayer struct {
	Net *nn.Network
}

func (p *NetworkPlayer) Move(b board.Board, turn board.Mark) int {
	move, ok := p.Net.Predict(board.Encode(b, turn), board.MaskSlice(b))
	if !ok {
		return board.NoMove
	}
	return move
}
