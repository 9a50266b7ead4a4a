package board

// InputSize is the length of the network input produced by Encode.
const InputSize = Size + 1

// Encode builds the network input for a state: one value per cell
// (X=+1, O=-1, empty=0) followed by the turn indicator (X=+1, O=-1).
func Encode(b Board, turn Mark) []float64 {
	in := make([]float64, InputSize)
	for i, m := range b {
		in[i] = m.Sign()
	}
	in[Size] = turn.Sign()
	return in
}

// MaskSlice returns the legality mask as a slice, the form the network consumes.
func MaskSlice(b Board) []float64 {
	m := b.Mask()
	return m[:]
}
