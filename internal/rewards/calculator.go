// Package rewards computes MIC rewards for learning activity.
//
// Formula: base × accuracy × difficulty multiplier × GII multiplier, plus a
// perfect-score bonus and a streak bonus, both expressed as a fraction of the
// base reward. Totals are rounded to whole MIC with banker's rounding.
package rewards

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// StreakTier grants Bonus (fraction of base reward) once a streak reaches Days.
type StreakTier struct {
	Days  int
	Bonus float64
}

// Config holds the reward constants.
type Config struct {
	MinimumAccuracy       float64
	PerfectScoreBonus     float64
	StreakTiers           []StreakTier
	DifficultyMultipliers map[string]float64
	Thresholds            integrity.Thresholds
}

// DefaultConfig returns the production reward configuration.
func DefaultConfig() Config {
	return Config{
		MinimumAccuracy:   0.70,
		PerfectScoreBonus: 0.10,
		StreakTiers: []StreakTier{
			{Days: 3, Bonus: 0.05},
			{Days: 7, Bonus: 0.10},
			{Days: 30, Bonus: 0.25},
		},
		DifficultyMultipliers: map[string]float64{
			"beginner":     1.0,
			"easy":         1.0,
			"intermediate": 1.2,
			"advanced":     1.5,
		},
		Thresholds: integrity.DefaultThresholds,
	}
}

// Input describes one completed activity.
type Input struct {
	BaseReward int
	Accuracy   float64
	Difficulty string
	Streak     int
	GII        float64
}

type Breakdown struct {
	Base         int64 `json:"base"`
	PerfectBonus int64 `json:"perfect_bonus"`
	StreakBonus  int64 `json:"streak_bonus"`
}

type Multipliers struct {
	Accuracy   float64 `json:"accuracy"`
	Difficulty float64 `json:"difficulty"`
	GII        float64 `json:"gii"`
}

// Reward is the outcome of Calculate. A zero MICEarned with
// CircuitBreakerActive or AccuracyTooLow set is an expected outcome, not an
// error.
type Reward struct {
	MICEarned            int64        `json:"mic_earned"`
	Breakdown            *Breakdown   `json:"breakdown,omitempty"`
	Multipliers          *Multipliers `json:"multipliers,omitempty"`
	Streak               int          `json:"streak"`
	CircuitBreakerActive bool         `json:"circuit_breaker_active"`
	AccuracyTooLow       bool         `json:"accuracy_too_low,omitempty"`
	MinimumRequired      float64      `json:"minimum_required,omitempty"`
	Message              string       `json:"message,omitempty"`
}

// Err returns the taxonomy error for a zero-reward outcome, or nil.
func (r *Reward) Err() error {
	switch {
	case r.CircuitBreakerActive:
		return fmt.Errorf("%w: %s", models.ErrCircuitBreakerActive, r.Message)
	case r.AccuracyTooLow:
		return fmt.Errorf("%w: %s", models.ErrAccuracyBelowThreshold, r.Message)
	}
	return nil
}

// Calculate computes a reward with the default configuration.
func Calculate(in Input) (*Reward, error) {
	return DefaultConfig().Calculate(in)
}

// Calculate computes the reward for in.
func (c Config) Calculate(in Input) (*Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if c.Thresholds.Halted(in.GII) {
		return &Reward{
			Streak:               in.Streak,
			CircuitBreakerActive: true,
			Message:              "MIC minting paused - system integrity below safe threshold",
		}, nil
	}
	if in.Accuracy < c.MinimumAccuracy {
		return &Reward{
			Streak:          in.Streak,
			AccuracyTooLow:  true,
			MinimumRequired: c.MinimumAccuracy,
			Message:         fmt.Sprintf("Accuracy below %.0f%% minimum threshold", c.MinimumAccuracy*100),
		}, nil
	}

	difficultyMult := c.DifficultyMultiplier(in.Difficulty)
	giiMult := c.Thresholds.Multiplier(in.GII)

	base := decimal.NewFromInt(int64(in.BaseReward))
	baseMIC := base.
		Mul(decimal.NewFromFloat(in.Accuracy)).
		Mul(decimal.NewFromFloat(difficultyMult)).
		Mul(decimal.NewFromFloat(giiMult))

	perfectBonus := decimal.Zero
	if in.Accuracy == 1.0 {
		perfectBonus = base.Mul(decimal.NewFromFloat(c.PerfectScoreBonus))
	}
	streakBonus := base.Mul(decimal.NewFromFloat(c.StreakBonus(in.Streak)))

	total := baseMIC.Add(perfectBonus).Add(streakBonus).RoundBank(0)

	return &Reward{
		MICEarned: total.IntPart(),
		Breakdown: &Breakdown{
			Base:         baseMIC.RoundBank(0).IntPart(),
			PerfectBonus: perfectBonus.RoundBank(0).IntPart(),
			StreakBonus:  streakBonus.RoundBank(0).IntPart(),
		},
		Multipliers: &Multipliers{
			Accuracy:   in.Accuracy,
			Difficulty: difficultyMult,
			GII:        giiMult,
		},
		Streak: in.Streak,
	}, nil
}

// DifficultyMultiplier looks up a difficulty label; unknown labels get 1.0.
func (c Config) DifficultyMultiplier(difficulty string) float64 {
	if m, ok := c.DifficultyMultipliers[strings.ToLower(strings.TrimSpace(difficulty))]; ok {
		return m
	}
	return 1.0
}

// StreakBonus returns the bonus fraction of the single largest tier that
// streak reaches. Tiers do not accumulate.
func (c Config) StreakBonus(streak int) float64 {
	tiers := make([]StreakTier, len(c.StreakTiers))
	copy(tiers, c.StreakTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Days > tiers[j].Days })
	for _, t := range tiers {
		if streak >= t.Days {
			return t.Bonus
		}
	}
	return 0
}

func (in Input) validate() error {
	if math.IsNaN(in.Accuracy) || in.Accuracy < 0 || in.Accuracy > 1 {
		return fmt.Errorf("%w: accuracy must be between 0 and 1", models.ErrInvalidInput)
	}
	if in.BaseReward < 0 {
		return fmt.Errorf("%w: base reward must be >= 0", models.ErrInvalidInput)
	}
	if in.Streak < 0 {
		return fmt.Errorf("%w: streak must be >= 0", models.ErrInvalidInput)
	}
	if err := integrity.Validate(in.GII); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}
