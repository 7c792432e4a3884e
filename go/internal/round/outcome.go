package round

import (
	"github.com/mcdev12/coinsweeper/go/internal/models"
)

// Rand is the randomness the controller needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Window is an inclusive range of whole seconds
type Window struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Valid reports whether the window is non-negative and ordered
func (w Window) Valid() bool {
	return w.Min >= 0 && w.Min <= w.Max
}

// Sample draws uniformly from [Min, Max]
func (w Window) Sample(rng Rand) int {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + rng.IntN(w.Max-w.Min+1)
}

// DecideOutcome picks the outcome of a round before it is played.
func DecideOutcome(alwaysWin bool, winProbability float64, rng Rand) models.Outcome {
	if alwaysWin || rng.Float64() < winProbability {
		return models.OutcomeWin
	}
	return models.OutcomeLoss
}
