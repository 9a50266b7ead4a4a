package board

import (
	"fmt"
	"strings"
)

// EmptyText is the text form of the empty board.
const EmptyText = "........."

// ParseBoard parses the compact 9-character form, row-major, using
// 'x', 'o' and '.' (or '-', '_'). Whitespace and '/' separators are ignored,
// so "x.o/.x./..o" is accepted.
func ParseBoard(s string) (Board, error) {
	var b Board
	cells := strings.Map(func(r rune) rune {
		if r == '/' || r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, s)

	if len(cells) != Size {
		return b, fmt.Errorf("invalid board: need %d cells, got %d", Size, len(cells))
	}

	for i := 0; i < Size; i++ {
		m, ok := MarkFromChar(cells[i])
		if !ok {
			return b, fmt.Errorf("invalid board: bad cell %q at %d", cells[i], i)
		}
		b[i] = m
	}

	return b, nil
}

// Text returns the compact 9-character form accepted by ParseBoard.
func (b Board) Text() string {
	var buf [Size]byte
	for i, m := range b {
		buf[i] = m.Char()
	}
	return string(buf[:])
}
