// Package trainer drives a network through repeated training passes over the
// oracle-labelled corpus, optionally mixing in fresh self-play rollouts.
package trainer

import (
	"math/rand"

	"github.com/hailam/tttplay/internal/board"
	"github.com/hailam/tttplay/internal/engine"
	"github.com/hailam/tttplay/internal/nn"
)

// ToExample converts one labelled state into a unit-weight training example.
func ToExample(s engine.TeacherState) nn.Example {
	return nn.Example{
		Input:  board.Encode(s.Board, s.Turn),
		Policy: append([]float64(nil), s.Policy[:]...),
		Mask:   append([]float64(nil), s.Mask[:]...),
		Weight: 1,
		Value:  s.Value,
	}
}

// Corpus converts a whole dataset.
func Corpus(states []engine.TeacherState) []nn.Example {
	var result = make([]nn.Example, len(states))
	for i, s := range states {
		result[i] = ToExample(s)
	}
	return result
}

// Rollout plays one game from the empty board. Each move is the network's
// choice, or a uniformly random legal move with probability epsilon. Every
// non-terminal state on the way is labelled by the oracle.
func Rollout(rnd *rand.Rand, oracle *engine.Oracle, net *nn.Network, epsilon float64) []nn.Example {
	var b = board.NewBoard()
	var turn = board.FirstTurn
	var examples []nn.Example

	for !b.IsTerminal() {
		var res = oracle.Policy(b, turn)
		examples = append(examples, ToExample(engine.TeacherState{
			Board:  b,
			Turn:   turn,
			Policy: res.Policy,
			Mask:   res.Mask,
			Value:  res.Value,
		}))

		var move int
		if rnd.Float64() < epsilon {
			var legal = b.LegalMoves()
			move = legal[rnd.Intn(len(legal))]
		} else {
			move, _ = net.Predict(board.Encode(b, turn), board.MaskSlice(b))
		}
		b = b.Play(move, turn)
		turn = board.NextTurn(turn)
	}
	return examples
}
