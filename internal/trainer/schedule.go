package trainer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Step switches the learning rate from Epoch onwards.
type Step struct {
	Epoch        int
	LearningRate float64
}

// StepSchedule is a piecewise-constant learning rate.
type StepSchedule struct {
	Base  float64
	Steps []Step // sorted by Epoch
}

// At returns the learning rate for a 1-based epoch.
func (s StepSchedule) At(epoch int) float64 {
	var lr = s.Base
	for _, st := range s.Steps {
		if epoch < st.Epoch {
			break
		}
		lr = st.LearningRate
	}
	return lr
}

// ParseSchedule parses steps written as "epoch:lr,epoch:lr", e.g. "50:0.005,100:0.001".
// An empty string gives a constant schedule.
func ParseSchedule(base float64, text string) (StepSchedule, error) {
	var s = StepSchedule{Base: base}
	text = strings.TrimSpace(text)
	if text == "" {
		return s, nil
	}

	for _, field := range strings.Split(text, ",") {
		var parts = strings.SplitN(strings.TrimSpace(field), ":", 2)
		if len(parts) != 2 {
			return StepSchedule{}, errors.Errorf("bad schedule step %q", field)
		}
		epoch, err := strconv.Atoi(parts[0])
		if err != nil || epoch < 1 {
			return StepSchedule{}, errors.Errorf("bad schedule epoch %q", parts[0])
		}
		lr, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return StepSchedule{}, errors.Wrapf(err, "bad schedule rate %q", parts[1])
		}
		if lr < 0 || math.IsNaN(lr) || math.IsInf(lr, 0) {
			return StepSchedule{}, errors.Errorf("bad schedule rate %v", lr)
		}
		s.Steps = append(s.Steps, Step{Epoch: epoch, LearningRate: lr})
	}

	sort.SliceStable(s.Steps, func(i, j int) bool {
		return s.Steps[i].Epoch < s.Steps[j].Epoch
	})
	return s, nil
}
