package engine

import (
	"math"
	"testing"

	"github.com/hailam/tttplay/internal/board"
)

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.ParseBoard(s)
	if err != nil {
		t.Fatalf("Failed to parse board %q: %v", s, err)
	}
	return b
}

func TestEmptyBoardIsDraw(t *testing.T) {
	o := NewOracle()
	res := o.Policy(board.NewBoard(), board.FirstTurn)

	if res.Value != 0 {
		t.Errorf("empty board value = %v, want 0", res.Value)
	}
	for i, p := range res.Policy {
		if p <= 0 {
			t.Errorf("opening move %d has probability %v, want > 0", i, p)
		}
		if p != res.Policy[0] {
			t.Errorf("opening move %d has probability %v, want %v", i, p, res.Policy[0])
		}
	}

	t.Logf("Nodes: %d, cached states: %d, hit rate: %.1f%%", o.Nodes(), o.CacheSize(), o.HitRate())
}

func TestForcedWin(t *testing.T) {
	tests := []struct {
		board string
		turn  board.Mark
		win   int
	}{
		{"xx./oo./...", board.X, 2},
		{"xx./oo./x..", board.O, 5},
		{"x.o/x.o/...", board.X, 6},
		{"o.x/.ox/...", board.X, 8}, // X completes the right column
	}

	o := NewOracle()
	for _, tc := range tests {
		b := mustParse(t, tc.board)
		res := o.Policy(b, tc.turn)

		if res.Policy[tc.win] != 1 {
			t.Errorf("%s: winning move %d has probability %v, want 1 (policy %v)",
				tc.board, tc.win, res.Policy[tc.win], res.Policy)
		}
		want := float64(WinScore-1) / WinScore
		if res.Value != want {
			t.Errorf("%s: value = %v, want %v", tc.board, res.Value, want)
		}
		if res.Score != WinScore-1 {
			t.Errorf("%s: score = %d, want %d", tc.board, res.Score, WinScore-1)
		}
	}
}

func TestBlockForcedLoss(t *testing.T) {
	// X threatens the top row; O's only non-losing move is to block at 2.
	b := mustParse(t, "xx./.o./...")
	res := NewOracle().Policy(b, board.O)

	if res.Policy[2] != 1 {
		t.Errorf("blocking move has probability %v, want 1 (policy %v)", res.Policy[2], res.Policy)
	}
}

func TestDoubleThreatIsLost(t *testing.T) {
	// X threatens both 1 and 3; whatever O plays, X wins on the next ply,
	// so every legal move is equally bad.
	b := mustParse(t, "x.x/.o./x.o")
	res := NewOracle().Policy(b, board.O)

	want := -float64(WinScore-2) / WinScore
	if res.Value != want {
		t.Errorf("value = %v, want %v", res.Value, want)
	}
	moves := b.LegalMoves()
	uniform := 1 / float64(len(moves))
	for _, i := range moves {
		if res.Policy[i] != uniform {
			t.Errorf("move %d has probability %v, want %v", i, res.Policy[i], uniform)
		}
	}
	if got := ScoreToString(res.Score); got != "Loss in 2" {
		t.Errorf("ScoreToString(%d) = %q, want %q", res.Score, got, "Loss in 2")
	}
}

func TestTerminalStates(t *testing.T) {
	o := NewOracle()

	won := mustParse(t, "xxx/oo./...")
	res := o.Policy(won, board.O)
	if res.Value != -1 {
		t.Errorf("lost terminal value = %v, want -1", res.Value)
	}
	for _, p := range res.Policy {
		if p != 0 {
			t.Errorf("terminal policy must be zero, got %v", res.Policy)
			break
		}
	}

	drawn := mustParse(t, "xox/xoo/oxx")
	res = o.Policy(drawn, board.O)
	if res.Value != 0 {
		t.Errorf("drawn terminal value = %v, want 0", res.Value)
	}
	if res.Mask != [board.Size]float64{} {
		t.Errorf("full board mask = %v, want all zero", res.Mask)
	}
	if moves := o.BestMoves(drawn, board.O); moves != nil {
		t.Errorf("BestMoves on a full board = %v, want nil", moves)
	}
}

func TestDeterminism(t *testing.T) {
	b := mustParse(t, "x../.o./...")
	o := NewOracle()
	first := o.Policy(b, board.X)
	second := o.Policy(b, board.X)

	if first != second {
		t.Errorf("repeated queries differ:\n%+v\n%+v", first, second)
	}

	// A fresh oracle queried directly must agree with one that reached the
	// state from the empty board.
	warm := NewOracle()
	warm.Policy(board.NewBoard(), board.FirstTurn)
	if got := warm.Policy(b, board.X); got != first {
		t.Errorf("cache state changed the answer:\n%+v\n%+v", first, got)
	}
}

func TestPolicyInvariantsOnReachableStates(t *testing.T) {
	o := NewOracle()
	seen := make(map[board.Key]bool)
	count := 0

	walk(board.NewBoard(), board.FirstTurn, seen, func(b board.Board, turn board.Mark) {
		count++
		res := o.Policy(b, turn)

		if res.Mask != b.Mask() {
			t.Fatalf("%s: mask %v differs from emptiness", b.Text(), res.Mask)
		}

		var sum float64
		for i, p := range res.Policy {
			if p > 0 && res.Mask[i] == 0 {
				t.Fatalf("%s: mass on illegal move %d", b.Text(), i)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("%s: policy sums to %v", b.Text(), sum)
		}
		if res.Value < -1 || res.Value > 1 {
			t.Fatalf("%s: value %v out of range", b.Text(), res.Value)
		}
	})

	if count != 4520 {
		t.Errorf("visited %d non-terminal states, want 4520", count)
	}
}

func TestSymmetryInvariance(t *testing.T) {
	o := NewOracle()
	b := mustParse(t, "x../..o/...")
	res := o.Policy(b, board.X)

	for _, p := range board.Symmetries {
		got := o.Policy(b.Transform(p), board.X)
		if got.Value != res.Value {
			t.Errorf("value changed under %v: %v vs %v", p, got.Value, res.Value)
		}
		if want := board.TransformPolicy(res.Policy, p); got.Policy != want {
			t.Errorf("policy under %v = %v, want %v", p, got.Policy, want)
		}
	}
}

func TestAdjustScoreFromCache(t *testing.T) {
	tests := []struct{ score, ply, want int }{
		{WinScore - 1, 1, WinScore - 2},
		{-WinScore, 1, -WinScore + 1},
		{0, 3, 0},
	}
	for _, tc := range tests {
		if got := AdjustScoreFromCache(tc.score, tc.ply); got != tc.want {
			t.Errorf("AdjustScoreFromCache(%d, %d) = %d, want %d", tc.score, tc.ply, got, tc.want)
		}
	}
}
