package trainer

import "math"

// RunningAverage is a weighted mean that ignores NaN and infinite samples.
type RunningAverage struct {
	sum     float64
	weight  float64
	skipped int
}

// Add records x with weight w and reports whether it was accepted.
func (a *RunningAverage) Add(x, w float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		a.skipped++
		return false
	}
	a.sum += x * w
	a.weight += w
	return true
}

// Mean returns the mean of the accepted samples; false if there were none.
func (a *RunningAverage) Mean() (float64, bool) {
	if a.weight == 0 {
		return 0, false
	}
	return a.sum / a.weight, true
}

// Skipped returns the number of rejected samples.
func (a *RunningAverage) Skipped() int { return a.skipped }
