package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer is a fully connected (affine) layer.
// Weights are InputDim rows by OutputDim columns.
type Layer struct {
	W *mat.Dense
	B *mat.VecDense
}

// newLayer creates a layer with Glorot-uniform weights and zero biases.
func newLayer(in, out int, rng *rand.Rand) *Layer {
	limit := math.Sqrt(6 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return &Layer{
		W: mat.NewDense(in, out, data),
		B: mat.NewVecDense(out, nil),
	}
}

// Dims returns the input and output dimensions.
func (l *Layer) Dims() (in, out int) {
	return l.W.Dims()
}

// affine computes W^T x + b.
func (l *Layer) affine(x []float64) []float64 {
	in, out := l.Dims()
	var z mat.VecDense
	z.MulVec(l.W.T(), mat.NewVecDense(in, x))
	z.AddVec(&z, l.B)

	res := make([]float64, out)
	for j := range res {
		res[j] = z.AtVec(j)
	}
	return res
}

// inputGrad maps a gradient at the layer output back to its input: W delta.
// It must be called before update so it sees this step's starting weights.
func (l *Layer) inputGrad(delta []float64) []float64 {
	in, out := l.Dims()
	var g mat.VecDense
	g.MulVec(l.W, mat.NewVecDense(out, delta))

	res := make([]float64, in)
	for i := range res {
		res[i] = g.AtVec(i)
	}
	return res
}

// step holds the optimiser settings for one update.
type step struct {
	lr    float64
	decay float64 // multiplicative weight decay factor, 1 - lr*wd
	clip  float64
}

// update applies one SGD step given the layer input x and output gradient delta:
//
//	w = w*(1 - lr*wd) - lr*clip(x_i*delta_j)
//	b = b - lr*clip(delta_j)
//
// If diag is non-nil it receives the unclipped gradient magnitudes.
func (l *Layer) update(x, delta []float64, s step, diag *LayerDiagnostics) {
	in, out := l.Dims()
	raw := l.W.RawMatrix()

	if diag != nil {
		diag.WeightGrad = mat.NewDense(in, out, nil)
		diag.BiasGrad = make([]float64, out)
	}

	for i := 0; i < in; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+out]
		for j := range row {
			g := x[i] * delta[j]
			row[j] = row[j]*s.decay - s.lr*clip(g, s.clip)
			if diag != nil {
				diag.WeightGrad.Set(i, j, math.Abs(g))
			}
		}
	}

	bias := l.B.RawVector().Data
	for j := 0; j < out; j++ {
		bias[j] -= s.lr * clip(delta[j], s.clip)
		if diag != nil {
			diag.BiasGrad[j] = math.Abs(delta[j])
		}
	}
}

func clip(g, limit float64) float64 {
	if g > limit {
		return limit
	}
	if g < -limit {
		return -limit
	}
	return g
}

// LayerDiagnostics holds the gradient magnitudes of one layer for the last
// example of a training call. It never aliases live parameters.
type LayerDiagnostics struct {
	Name       string
	WeightGrad *mat.Dense
	BiasGrad   []float64
}

// MeanAbs returns the mean weight-gradient magnitude.
func (d LayerDiagnostics) MeanAbs() float64 {
	if d.WeightGrad == nil {
		return 0
	}
	r, c := d.WeightGrad.Dims()
	return mat.Sum(d.WeightGrad) / float64(r*c)
}

// Diagnostics collects per-layer gradient magnitudes: trunk layers in order,
// then the policy head, then the value head.
type Diagnostics struct {
	Layers []LayerDiagnostics
}
