package board

// Permutation maps each source cell index to its destination index.
type Permutation [Size]int

// The 8 elements of the square's symmetry group.
var (
	Identity      = Permutation{0, 1, 2, 3, 4, 5, 6, 7, 8}
	Rotate90      = Permutation{2, 5, 8, 1, 4, 7, 0, 3, 6} // clockwise
	Rotate180     = Permutation{8, 7, 6, 5, 4, 3, 2, 1, 0}
	Rotate270     = Permutation{6, 3, 0, 7, 4, 1, 8, 5, 2}
	FlipLeftRight = Permutation{2, 1, 0, 5, 4, 3, 8, 7, 6}
	FlipTopBottom = Permutation{6, 7, 8, 3, 4, 5, 0, 1, 2}
	FlipDiagonal  = Permutation{0, 3, 6, 1, 4, 7, 2, 5, 8} // transpose
	FlipAnti      = Permutation{8, 5, 2, 7, 4, 1, 6, 3, 0}
)

// Symmetries lists the whole group, identity first.
var Symmetries = [8]Permutation{
	Identity, Rotate90, Rotate180, Rotate270,
	FlipLeftRight, FlipTopBottom, FlipDiagonal, FlipAnti,
}

// Transform relabels cell positions through p: the mark at i moves to p[i].
func (b Board) Transform(p Permutation) Board {
	var out Board
	for i, m := range b {
		out[p[i]] = m
	}
	return out
}

// TransformPolicy scatters each probability mass to its permuted index.
func TransformPolicy(policy [Size]float64, p Permutation) [Size]float64 {
	var out [Size]float64
	for i, v := range policy {
		out[p[i]] = v
	}
	return out
}

// Inverse returns the permutation undoing p.
func (p Permutation) Inverse() Permutation {
	var inv Permutation
	for i, j := range p {
		inv[j] = i
	}
	return inv
}
