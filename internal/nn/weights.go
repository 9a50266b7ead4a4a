package nn

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LayerState is the serialisable form of one affine layer.
// Weights is InputDim rows of OutputDim values.
type LayerState struct {
	InputDim  int         `json:"input_dim"`
	OutputDim int         `json:"output_dim"`
	Weights   [][]float64 `json:"weights"`
	Biases    []float64   `json:"biases"`
}

// Snapshot is a deep copy of every trainable parameter of a Network.
// Layers holds the trunk layers in order followed by the policy head.
type Snapshot struct {
	Config          Config       `json:"config"`
	Layers          []LayerState `json:"layers"`
	ValueHead       LayerState   `json:"value_head"`
	TrainedExamples int64        `json:"trained_examples"`
}

// ShapeError reports a layer whose dimensions differ between a snapshot and
// the network it is being loaded into.
type ShapeError struct {
	Layer   string
	WantIn  int
	WantOut int
	GotIn   int
	GotOut  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("nn: layer %s shape mismatch: network %dx%d, snapshot %dx%d",
		e.Layer, e.WantIn, e.WantOut, e.GotIn, e.GotOut)
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Config:          s.Config.clone(),
		Layers:          make([]LayerState, len(s.Layers)),
		ValueHead:       s.ValueHead.clone(),
		TrainedExamples: s.TrainedExamples,
	}
	for i, l := range s.Layers {
		c.Layers[i] = l.clone()
	}
	return c
}

func (l LayerState) clone() LayerState {
	c := LayerState{
		InputDim:  l.InputDim,
		OutputDim: l.OutputDim,
		Weights:   make([][]float64, len(l.Weights)),
		Biases:    append([]float64(nil), l.Biases...),
	}
	for i, row := range l.Weights {
		c.Weights[i] = append([]float64(nil), row...)
	}
	return c
}

func (l *Layer) state() LayerState {
	in, out := l.Dims()
	s := LayerState{
		InputDim:  in,
		OutputDim: out,
		Weights:   make([][]float64, in),
		Biases:    mat.Col(nil, 0, l.B),
	}
	for i := 0; i < in; i++ {
		s.Weights[i] = mat.Row(nil, i, l.W)
	}
	return s
}

// check verifies that s can be loaded into l without touching l.
func (l *Layer) check(name string, s LayerState) error {
	in, out := l.Dims()
	mismatch := &ShapeError{Layer: name, WantIn: in, WantOut: out, GotIn: s.InputDim, GotOut: s.OutputDim}
	if s.InputDim != in || s.OutputDim != out {
		return mismatch
	}
	if len(s.Weights) != in || len(s.Biases) != out {
		mismatch.GotIn, mismatch.GotOut = len(s.Weights), len(s.Biases)
		return mismatch
	}
	for _, row := range s.Weights {
		if len(row) != out {
			mismatch.GotOut = len(row)
			return mismatch
		}
	}
	return nil
}

func (l *Layer) load(s LayerState) {
	for i, row := range s.Weights {
		l.W.SetRow(i, row)
	}
	copy(l.B.RawVector().Data, s.Biases)
}

func (n *Network) layerName(i int) string {
	if i == len(n.trunk) {
		return "policy"
	}
	return fmt.Sprintf("trunk[%d]", i)
}

// Snapshot returns a deep copy of the network parameters.
func (n *Network) Snapshot() *Snapshot {
	s := &Snapshot{
		Config:          n.cfg.clone(),
		ValueHead:       n.value.state(),
		TrainedExamples: n.trained,
	}
	for _, l := range n.trunk {
		s.Layers = append(s.Layers, l.state())
	}
	s.Layers = append(s.Layers, n.policy.state())
	return s
}

// LoadSnapshot replaces the network parameters and training counter with
// those of s. Every layer is validated first; on error the network is left
// unchanged. The learning rate is not part of the snapshot.
func (n *Network) LoadSnapshot(s *Snapshot) error {
	if s == nil {
		return errors.New("nn: nil snapshot")
	}
	layers := append(append([]*Layer(nil), n.trunk...), n.policy)
	if len(s.Layers) != len(layers) {
		return errors.Errorf("nn: snapshot has %d layers, network has %d", len(s.Layers), len(layers))
	}

	for i, l := range layers {
		if err := l.check(n.layerName(i), s.Layers[i]); err != nil {
			return err
		}
	}
	if err := n.value.check("value", s.ValueHead); err != nil {
		return err
	}

	for i, l := range layers {
		l.load(s.Layers[i])
	}
	n.value.load(s.ValueHead)
	n.trained = s.TrainedExamples
	return nil
}
