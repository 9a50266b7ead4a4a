// Package nn implements a small policy/value network: a shared ReLU trunk
// feeding a softmax move-policy head and a tanh value head, trained online
// with plain SGD.
package nn

import (
	"github.com/pkg/errors"
)

// ErrInvalidConfig is the cause of every configuration error returned by New.
var ErrInvalidConfig = errors.New("nn: invalid config")

// Config describes the network architecture and its optimiser settings.
type Config struct {
	InputSize       int     `json:"input_size"`
	HiddenSizes     []int   `json:"hidden_sizes"`
	OutputSize      int     `json:"output_size"`
	LearningRate    float64 `json:"learning_rate"`
	WeightDecay     float64 `json:"weight_decay"`
	DropoutRate     float64 `json:"dropout_rate"`
	GradClip        float64 `json:"grad_clip"`
	ValueLossWeight float64 `json:"value_loss_weight"`
	Seed            int64   `json:"seed"`
}

// DefaultConfig returns the configuration used for tic-tac-toe:
// 10 inputs (9 cells + turn), two hidden layers, 9 move outputs.
func DefaultConfig() Config {
	return Config{
		InputSize:       10,
		HiddenSizes:     []int{64, 32},
		OutputSize:      9,
		LearningRate:    0.01,
		WeightDecay:     1e-4,
		DropoutRate:     0.1,
		GradClip:        1,
		ValueLossWeight: 1,
		Seed:            1,
	}
}

// Validate checks that every size is positive and every rate is in range.
func (c Config) Validate() error {
	if c.InputSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "input size %d", c.InputSize)
	}
	if c.OutputSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "output size %d", c.OutputSize)
	}
	if len(c.HiddenSizes) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no hidden layers: heads have no input")
	}
	for i, h := range c.HiddenSizes {
		if h <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "hidden layer %d has size %d", i, h)
		}
	}
	if c.LearningRate < 0 {
		return errors.Wrapf(ErrInvalidConfig, "learning rate %v", c.LearningRate)
	}
	if c.WeightDecay < 0 {
		return errors.Wrapf(ErrInvalidConfig, "weight decay %v", c.WeightDecay)
	}
	if c.DropoutRate < 0 || c.DropoutRate >= 1 {
		return errors.Wrapf(ErrInvalidConfig, "dropout rate %v not in [0, 1)", c.DropoutRate)
	}
	if c.GradClip <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "gradient clip %v", c.GradClip)
	}
	if c.ValueLossWeight < 0 {
		return errors.Wrapf(ErrInvalidConfig, "value loss weight %v", c.ValueLossWeight)
	}
	return nil
}

// clone returns a copy that shares no storage with c.
func (c Config) clone() Config {
	c.HiddenSizes = append([]int(nil), c.HiddenSizes...)
	return c
}

// Example is one supervised training sample.
type Example struct {
	Input  []float64 // InputSize values
	Policy []float64 // target distribution, OutputSize values
	Mask   []float64 // 1 for legal moves
	Weight float64   // scales both loss terms and their gradients
	Value  float64   // target value in [-1, 1]
}

// Output is the result of a forward pass.
type Output struct {
	Policy []float64
	Value  float64
}
