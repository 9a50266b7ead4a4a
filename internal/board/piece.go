package board

// Mark is the content of a board cell, or the side to move.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

// FirstTurn is the side that moves on the empty board.
const FirstTurn = X

// Other returns the opposing mark. Empty maps to Empty.
func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// NextTurn returns the side to move after m has moved.
func NextTurn(m Mark) Mark {
	return m.Other()
}

// String returns the mark name.
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "-"
	}
}

// Char returns the text character used by ParseBoard and Board.String.
func (m Mark) Char() byte {
	switch m {
	case X:
		return 'x'
	case O:
		return 'o'
	default:
		return '.'
	}
}

// Sign returns the network encoding of the mark: X=+1, O=-1, Empty=0.
func (m Mark) Sign() float64 {
	switch m {
	case X:
		return 1
	case O:
		return -1
	default:
		return 0
	}
}

// MarkFromChar converts a text character to a Mark.
func MarkFromChar(c byte) (Mark, bool) {
	switch c {
	case 'x', 'X':
		return X, true
	case 'o', 'O':
		return O, true
	case '.', '-', '_':
		return Empty, true
	default:
		return Empty, false
	}
}
