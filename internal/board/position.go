package board

import "strings"

// Size is the number of cells on the board.
const Size = 9

// NoMove is returned by move pickers when no legal move exists.
const NoMove = -1

// Lines lists the 8 winning lines: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board is a 3x3 tic-tac-toe board in row-major order.
// It is a value type; Play returns a new board and never mutates the receiver.
type Board [Size]Mark

// NewBoard returns the empty board.
func NewBoard() Board {
	return Board{}
}

// Play returns the board with m placed on cell i.
// The caller is responsible for checking IsMoveValid first.
func (b Board) Play(i int, m Mark) Board {
	b[i] = m
	return b
}

// ComputeWinner returns the mark owning a complete line, or Empty.
func ComputeWinner(b Board) Mark {
	for _, l := range Lines {
		m := b[l[0]]
		if m != Empty && b[l[1]] == m && b[l[2]] == m {
			return m
		}
	}
	return Empty
}

// IsMoveValid reports whether cell i exists and is empty.
func IsMoveValid(b Board, i int) bool {
	return i >= 0 && i < Size && b[i] == Empty
}

// EmptyCount returns the number of empty cells.
func (b Board) EmptyCount() int {
	n := 0
	for _, m := range b {
		if m == Empty {
			n++
		}
	}
	return n
}

// Full returns true if no cell is empty.
func (b Board) Full() bool {
	return b.EmptyCount() == 0
}

// IsTerminal returns true if the game is over (a line is complete or the board is full).
func (b Board) IsTerminal() bool {
	return ComputeWinner(b) != Empty || b.Full()
}

// Mask returns the legality mask: 1 for empty cells, 0 otherwise.
func (b Board) Mask() [Size]float64 {
	var mask [Size]float64
	for i, m := range b {
		if m == Empty {
			mask[i] = 1
		}
	}
	return mask
}

// LegalMoves returns the indices of empty cells in ascending order.
func (b Board) LegalMoves() []int {
	moves := make([]int, 0, Size)
	for i, m := range b {
		if m == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// SideToMove infers whose turn it is from the mark counts, assuming X started.
func (b Board) SideToMove() Mark {
	var xs, os int
	for _, m := range b {
		switch m {
		case X:
			xs++
		case O:
			os++
		}
	}
	if xs > os {
		return O
	}
	return X
}

// String returns a visual representation of the board.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(b[r*3+c].Char())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
