package board

import "testing"

// games tallies every complete game from b by result.
func games(b Board, turn Mark, tally map[Mark]int64) {
	if w := ComputeWinner(b); w != Empty || b.Full() {
		tally[w]++
		return
	}
	for _, i := range b.LegalMoves() {
		games(b.Play(i, turn), NextTurn(turn), tally)
	}
}

func TestPerftEmptyBoard(t *testing.T) {
	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 9},
		{2, 72},
		{3, 504},
		{4, 3024},
		{5, 15120},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := Perft(NewBoard(), FirstTurn, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

func TestCompleteGames(t *testing.T) {
	tally := make(map[Mark]int64)
	games(NewBoard(), FirstTurn, tally)

	total := tally[X] + tally[O] + tally[Empty]
	if total != 255168 {
		t.Errorf("total games = %d, want 255168", total)
	}
	if tally[X] != 131184 {
		t.Errorf("X wins = %d, want 131184", tally[X])
	}
	if tally[O] != 77904 {
		t.Errorf("O wins = %d, want 77904", tally[O])
	}
	if tally[Empty] != 46080 {
		t.Errorf("draws = %d, want 46080", tally[Empty])
	}
}
