package board

// Perft counts the move sequences of the given length from b, stopping early
// at finished games.
func Perft(b Board, turn Mark, depth int) int64 {
	if depth == 0 || b.IsTerminal() {
		return 1
	}

	var nodes int64
	for _, i := range b.LegalMoves() {
		nodes += Perft(b.Play(i, turn), NextTurn(turn), depth-1)
	}
	return nodes
}
