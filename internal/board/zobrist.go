package board

// Key identifies a (board, side to move) pair.
// The board is packed base 3 (one digit per cell) and the turn takes the low bit,
// so keys are exact: two states share a key only if they are identical.
type Key uint32

// pow3 holds 3^i for each cell index.
var pow3 = [Size]uint32{1, 3, 9, 27, 81, 243, 729, 2187, 6561}

// NumKeys bounds every Key value.
const NumKeys = 19683 * 2

// Key returns the content key for the board with turn to move.
func (b Board) Key(turn Mark) Key {
	var code uint32
	for i, m := range b {
		code += uint32(m) * pow3[i]
	}
	k := code << 1
	if turn == O {
		k |= 1
	}
	return Key(k)
}

// Decode recovers the board and side to move from a key.
func (k Key) Decode() (Board, Mark) {
	var b Board
	turn := X
	if k&1 != 0 {
		turn = O
	}
	code := uint32(k) >> 1
	for i := 0; i < Size; i++ {
		b[i] = Mark(code % 3)
		code /= 3
	}
	return b, turn
}
