package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// illegalLogit replaces the logit of every masked-out move before softmax.
const illegalLogit = -1e9

// logEpsilon keeps log(p) finite in the cross-entropy.
const logEpsilon = 1e-12

// Network is a policy/value network.
//
// Layout: input -> trunk (ReLU + dropout per hidden layer) -> hidden.
// The policy head maps hidden to OutputSize logits, the value head maps
// hidden to one tanh unit. A Network is not safe for concurrent use.
type Network struct {
	cfg Config

	trunk  []*Layer
	policy *Layer
	value  *Layer

	lr       float64
	training bool
	trained  int64
	rng      *rand.Rand
}

// New creates a network with Glorot-uniform weights drawn from cfg.Seed.
func New(cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()

	n := &Network{
		cfg: cfg,
		lr:  cfg.LearningRate,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}

	in := cfg.InputSize
	for _, h := range cfg.HiddenSizes {
		n.trunk = append(n.trunk, newLayer(in, h, n.rng))
		in = h
	}
	n.policy = newLayer(in, cfg.OutputSize, n.rng)
	n.value = newLayer(in, 1, n.rng)
	return n, nil
}

// Config returns a copy of the configuration the network was built with.
func (n *Network) Config() Config { return n.cfg.clone() }

// LearningRate returns the current learning rate.
func (n *Network) LearningRate() float64 { return n.lr }

// SetLearningRate changes the learning rate used by subsequent training calls.
func (n *Network) SetLearningRate(lr float64) { n.lr = lr }

// TrainedExamples returns how many examples the network has been trained on.
func (n *Network) TrainedExamples() int64 { return n.trained }

// trace records the intermediate values of one forward pass.
type trace struct {
	inputs [][]float64 // input of each trunk layer
	pre    [][]float64 // pre-activation of each trunk layer
	gate   [][]float64 // per-unit dropout scale: 0 or 1/(1-p) in training, 1 otherwise
	hidden []float64   // trunk output
	policy []float64
	value  float64
}

func (n *Network) forward(input, mask []float64) *trace {
	if len(input) != n.cfg.InputSize {
		panic(fmt.Sprintf("nn: input has %d values, want %d", len(input), n.cfg.InputSize))
	}
	if len(mask) != n.cfg.OutputSize {
		panic(fmt.Sprintf("nn: mask has %d values, want %d", len(mask), n.cfg.OutputSize))
	}

	t := &trace{
		inputs: make([][]float64, len(n.trunk)),
		pre:    make([][]float64, len(n.trunk)),
		gate:   make([][]float64, len(n.trunk)),
	}
	p := n.cfg.DropoutRate
	dropout := n.training && p > 0

	x := input
	for k, l := range n.trunk {
		z := l.affine(x)
		g := make([]float64, len(z))
		a := make([]float64, len(z))
		for j, v := range z {
			g[j] = 1
			if dropout {
				if n.rng.Float64() < p {
					g[j] = 0
				} else {
					g[j] = 1 / (1 - p)
				}
			}
			if v > 0 {
				a[j] = v * g[j]
			}
		}
		t.inputs[k], t.pre[k], t.gate[k] = x, z, g
		x = a
	}
	t.hidden = x

	t.policy = MaskedSoftmax(n.policy.affine(x), mask)
	t.value = math.Tanh(n.value.affine(x)[0])
	return t
}

// Forward runs the network in inference mode (no dropout).
// It panics if input or mask have the wrong length.
func (n *Network) Forward(input, mask []float64) Output {
	t := n.forward(input, mask)
	return Output{Policy: t.policy, Value: t.value}
}

// Predict returns the legal move with the highest policy probability.
// The boolean is false when the mask has no legal move.
func (n *Network) Predict(input, mask []float64) (int, bool) {
	out := n.Forward(input, mask)
	best := -1
	for i, p := range out.Policy {
		if mask[i] <= 0 {
			continue
		}
		if best < 0 || p > out.Policy[best] {
			best = i
		}
	}
	return best, best >= 0
}

// MaskedSoftmax returns softmax(logits) over the moves with mask > 0.
// Masked-out moves get exactly zero; an all-zero mask yields all zeros.
func MaskedSoftmax(logits, mask []float64) []float64 {
	out := make([]float64, len(logits))

	max := math.Inf(-1)
	legal := false
	for i, v := range logits {
		if mask[i] > 0 {
			legal = true
		} else {
			v = illegalLogit
		}
		if v > max {
			max = v
		}
	}
	if !legal {
		return out
	}

	var sum float64
	for i, v := range logits {
		if mask[i] <= 0 {
			continue
		}
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// CrossEntropy returns -sum target_i * log(max(policy_i, eps)).
func CrossEntropy(policy, target []float64) float64 {
	var loss float64
	for i, t := range target {
		if t != 0 {
			loss -= t * math.Log(math.Max(policy[i], logEpsilon))
		}
	}
	return loss
}

// Loss returns the weighted combined loss of a single forward output.
func (n *Network) Loss(out Output, ex Example) float64 {
	d := out.Value - ex.Value
	return ex.Weight * (CrossEntropy(out.Policy, ex.Policy) + n.cfg.ValueLossWeight*d*d)
}

// Train runs one online SGD step per example, in order, and returns the
// sample-weighted average loss measured before each example's update.
func (n *Network) Train(examples []Example) float64 {
	return n.train(examples, nil)
}

// TrainWithDiagnostics is Train that also reports the gradient magnitudes of
// the last example.
func (n *Network) TrainWithDiagnostics(examples []Example) (float64, Diagnostics) {
	var diag Diagnostics
	loss := n.train(examples, &diag)
	return loss, diag
}

func (n *Network) train(examples []Example, diag *Diagnostics) float64 {
	n.training = true
	defer func() { n.training = false }()

	var total, weights float64
	for i, ex := range examples {
		t := n.forward(ex.Input, ex.Mask)
		total += n.Loss(Output{Policy: t.policy, Value: t.value}, ex)
		weights += ex.Weight

		if i == len(examples)-1 {
			n.backward(t, ex, diag)
		} else {
			n.backward(t, ex, nil)
		}
	}
	n.trained += int64(len(examples))

	if weights == 0 {
		return 0
	}
	return total / weights
}

// backward propagates the loss gradient of one example and updates every
// parameter. Each input gradient is taken from the weights as they were at
// the start of this step.
func (n *Network) backward(t *trace, ex Example, diag *Diagnostics) {
	w := ex.Weight
	s := step{
		lr:    n.lr,
		decay: 1 - n.lr*n.cfg.WeightDecay,
		clip:  n.cfg.GradClip,
	}

	dLogits := make([]float64, len(t.policy))
	for i := range dLogits {
		dLogits[i] = (t.policy[i] - ex.Policy[i]) * w
	}
	v := t.value
	dValue := []float64{2 * (v - ex.Value) * n.cfg.ValueLossWeight * w * (1 - v*v)}

	dHidden := n.policy.inputGrad(dLogits)
	for j, g := range n.value.inputGrad(dValue) {
		dHidden[j] += g
	}

	var layers []LayerDiagnostics
	if diag != nil {
		layers = make([]LayerDiagnostics, len(n.trunk)+2)
		for k := 0; k <= len(n.trunk); k++ {
			layers[k].Name = n.layerName(k)
		}
		layers[len(n.trunk)+1].Name = "value"
	}
	at := func(i int) *LayerDiagnostics {
		if layers == nil {
			return nil
		}
		return &layers[i]
	}

	n.policy.update(t.hidden, dLogits, s, at(len(n.trunk)))
	n.value.update(t.hidden, dValue, s, at(len(n.trunk)+1))

	dA := dHidden
	for k := len(n.trunk) - 1; k >= 0; k-- {
		delta := make([]float64, len(dA))
		for j, g := range dA {
			if t.pre[k][j] > 0 {
				delta[j] = g * t.gate[k][j]
			}
		}
		if k > 0 {
			dA = n.trunk[k].inputGrad(delta)
		}
		n.trunk[k].update(t.inputs[k], delta, s, at(k))
	}

	if diag != nil {
		diag.Layers = layers
	}
}
