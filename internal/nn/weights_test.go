package nn

import (
	"testing"
)

func sampleInputs() []Example {
	a := testExample()
	b := Example{
		Input: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		Mask:  []float64{1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	c := Example{
		Input: []float64{1, -1, 1, -1, 0, 0, 0, 0, 0, -1},
		Mask:  []float64{0, 0, 0, 0, 1, 1, 1, 1, 1},
	}
	return []Example{a, b, c}
}

func sameOutputs(t *testing.T, a, b *Network) {
	t.Helper()
	for _, ex := range sampleInputs() {
		x := a.Forward(ex.Input, ex.Mask)
		y := b.Forward(ex.Input, ex.Mask)
		if x.Value != y.Value {
			t.Fatalf("values differ: %v vs %v", x.Value, y.Value)
		}
		for i := range x.Policy {
			if x.Policy[i] != y.Policy[i] {
				t.Fatalf("policy[%d] differs: %v vs %v", i, x.Policy[i], y.Policy[i])
			}
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := smallConfig()
	src := mustNew(t, cfg)
	for i := 0; i < 20; i++ {
		src.Train([]Example{testExample()})
	}
	snap := src.Snapshot()

	cfg.Seed = 99
	dst := mustNew(t, cfg)
	if err := dst.LoadSnapshot(snap); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	sameOutputs(t, src, dst)
	if dst.TrainedExamples() != 20 {
		t.Errorf("trained examples = %d, want 20", dst.TrainedExamples())
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	n := mustNew(t, smallConfig())
	snap := n.Snapshot()
	ref := mustNew(t, smallConfig())

	// Editing the snapshot must not reach the network it came from.
	snap.Layers[0].Weights[0][0] += 1
	snap.ValueHead.Biases[0] += 1
	sameOutputs(t, n, ref)

	// Nor the network it was loaded into.
	loaded := mustNew(t, smallConfig())
	if err := loaded.LoadSnapshot(snap); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	want := loaded.Snapshot()
	snap.Layers[1].Weights[2][2] += 1
	got := loaded.Snapshot()
	if got.Layers[1].Weights[2][2] != want.Layers[1].Weights[2][2] {
		t.Error("loaded network aliases the snapshot")
	}

	clone := want.Clone()
	clone.Layers[0].Biases[0] = 42
	if want.Layers[0].Biases[0] == 42 {
		t.Error("Clone shares storage with the original")
	}
}

func TestLoadSnapshotShapeMismatch(t *testing.T) {
	n := mustNew(t, smallConfig())
	ref := mustNew(t, smallConfig())

	other := smallConfig()
	other.HiddenSizes = []int{8, 5}
	bad := mustNew(t, other).Snapshot()

	err := n.LoadSnapshot(bad)
	if err == nil {
		t.Fatal("mismatched snapshot loaded")
	}
	shape, ok := err.(*ShapeError)
	if !ok {
		t.Fatalf("error %T (%v), want *ShapeError", err, err)
	}
	if shape.Layer != "trunk[1]" || shape.WantOut != 6 || shape.GotOut != 5 {
		t.Errorf("unexpected shape error %+v", shape)
	}
	sameOutputs(t, n, ref)

	// A later layer mismatch must not leave earlier layers half-loaded.
	good := mustNew(t, smallConfig())
	good.Train([]Example{testExample()})
	partial := good.Snapshot()
	partial.ValueHead.Weights = partial.ValueHead.Weights[:3]
	if err := n.LoadSnapshot(partial); err == nil {
		t.Fatal("truncated value head loaded")
	}
	sameOutputs(t, n, ref)

	shallow := smallConfig()
	shallow.HiddenSizes = []int{8}
	if err := n.LoadSnapshot(mustNew(t, shallow).Snapshot()); err == nil {
		t.Error("snapshot with a different layer count loaded")
	}
	if err := n.LoadSnapshot(nil); err == nil {
		t.Error("nil snapshot loaded")
	}
}
