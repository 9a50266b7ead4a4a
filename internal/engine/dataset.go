package engine

import "github.com/hailam/tttplay/internal/board"

// TeacherState is one labelled position of the teacher dataset.
type TeacherState struct {
	Board  board.Board
	Turn   board.Mark
	Policy [board.Size]float64
	Mask   [board.Size]float64
	Value  float64
}

// DatasetOptions controls GenerateTeacherDataset.
type DatasetOptions struct {
	AugmentSymmetries bool
}

// ReachableCounts summarises the reachable state space.
type ReachableCounts struct {
	States   int // distinct (board, turn) pairs, terminals included
	Terminal int
}

// walk visits every distinct state reachable from b exactly once, depth first,
// and calls visit for each non-terminal one. Terminal states are recorded in
// seen but not expanded.
func walk(b board.Board, turn board.Mark, seen map[board.Key]bool, visit func(board.Board, board.Mark)) {
	key := b.Key(turn)
	if seen[key] {
		return
	}
	seen[key] = true

	if b.IsTerminal() {
		return
	}
	visit(b, turn)

	next := board.NextTurn(turn)
	for i := 0; i < board.Size; i++ {
		if board.IsMoveValid(b, i) {
			walk(b.Play(i, turn), next, seen, visit)
		}
	}
}

// GenerateTeacherDataset enumerates every reachable non-terminal state from
// the empty board, labels it with the oracle and optionally expands it through
// the board's 8 symmetries. States are emitted once per (board, turn) pair, in
// the walk's traversal order.
func GenerateTeacherDataset(o *Oracle, opts DatasetOptions) []TeacherState {
	var states []TeacherState
	seen := make(map[board.Key]bool)

	walk(board.NewBoard(), board.FirstTurn, seen, func(b board.Board, turn board.Mark) {
		res := o.Policy(b, turn)
		states = append(states, TeacherState{
			Board:  b,
			Turn:   turn,
			Policy: res.Policy,
			Mask:   res.Mask,
			Value:  res.Value,
		})
	})

	if !opts.AugmentSymmetries {
		return states
	}

	augmented := make([]TeacherState, 0, len(states))
	emitted := make(map[board.Key]bool, len(states))
	for _, s := range states {
		for _, p := range board.Symmetries {
			tb := s.Board.Transform(p)
			key := tb.Key(s.Turn)
			if emitted[key] {
				continue
			}
			emitted[key] = true

			augmented = append(augmented, TeacherState{
				Board:  tb,
				Turn:   s.Turn,
				Policy: board.TransformPolicy(s.Policy, p),
				Mask:   tb.Mask(),
				Value:  s.Value,
			})
		}
	}
	return augmented
}

// CountReachable counts the states reachable from the empty board.
func CountReachable() ReachableCounts {
	seen := make(map[board.Key]bool)
	var nonTerminal int
	walk(board.NewBoard(), board.FirstTurn, seen, func(board.Board, board.Mark) {
		nonTerminal++
	})
	return ReachableCounts{
		States:   len(seen),
		Terminal: len(seen) - nonTerminal,
	}
}
