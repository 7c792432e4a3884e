package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Tuning holds the difficulty parameters of the score formula.
type Tuning struct {
	Base        float64 `yaml:"base" json:"base"`
	TimeCeiling float64 `yaml:"time_ceiling" json:"time_ceiling"`
	FlatBonus   float64 `yaml:"flat_bonus" json:"flat_bonus"`
	BonusNum    float64 `yaml:"bonus_num" json:"bonus_num"`
	BonusDen    float64 `yaml:"bonus_den" json:"bonus_den"`
	UpperBound  float64 `yaml:"upper_bound" json:"upper_bound"`

	// SeedEntropy adds a small fudge term derived from the round id.
	// It is not load-bearing for anything the server checks.
	SeedEntropy bool `yaml:"seed_entropy" json:"seed_entropy"`
}

// DefaultTuning returns the parameters observed in the live client
func DefaultTuning() Tuning {
	return Tuning{
		Base:        45,
		TimeCeiling: 1200,
		FlatBonus:   2000,
		BonusNum:    9,
		BonusDen:    54,
		UpperBound:  900,
		SeedEntropy: true,
	}
}

// Validate checks that the tuning can produce a bounded score
func (t Tuning) Validate() error {
	var errs []error
	if t.BonusDen <= 0 {
		errs = append(errs, fmt.Errorf("bonus_den must be positive, got %v", t.BonusDen))
	}
	if t.UpperBound <= 0 {
		errs = append(errs, fmt.Errorf("upper_bound must be positive, got %v", t.UpperBound))
	}
	for name, v := range map[string]float64{
		"base":         t.Base,
		"time_ceiling": t.TimeCeiling,
		"flat_bonus":   t.FlatBonus,
		"bonus_num":    t.BonusNum,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be a finite non-negative number, got %v", name, v))
		}
	}
	return errors.Join(errs...)
}

// Compute returns the score reported for a won round that took gameTime
// seconds. The result is always within [0, t.UpperBound].
func Compute(gameTime int, gameID string, t Tuning) float64 {
	timeTerm := math.Max(0, t.TimeCeiling-10*float64(gameTime))
	raw := (t.Base*10 + timeTerm + t.FlatBonus) * (1 + t.BonusNum/t.BonusDen) / 10

	score := clamp(math.Floor(raw), t.UpperBound)
	if t.SeedEntropy {
		score = clamp(score+SeedValue(gameID), t.UpperBound)
	}
	return score
}

// SeedValue is the sum of the seed's character codes scaled down by 1e5
func SeedValue(seed string) float64 {
	var sum int
	for _, r := range seed {
		sum += int(r)
	}
	return float64(sum) / 1e5
}

func clamp(v, upper float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}
