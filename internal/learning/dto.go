package learning

import (
	"time"

	"github.com/kaizencycle/mobius-browser-shell/internal/catalog"
	"github.com/kaizencycle/mobius-browser-shell/internal/rewards"
)

type CalculateRequest struct {
	ModuleID string  `json:"module_id"`
	Accuracy float64 `json:"accuracy"`
	Streak   int     `json:"streak"`
}

type CompleteRequest struct {
	ModuleID          string  `json:"module_id"`
	Accuracy          float64 `json:"accuracy"`
	QuestionsAnswered int     `json:"questions_answered"`
	CorrectAnswers    int     `json:"correct_answers"`
	TimeSpentSeconds  int     `json:"time_spent_seconds"`
	Streak            int     `json:"streak"`
}

type RewardConfigSummary struct {
	MinimumAccuracy   float64 `json:"minimum_accuracy"`
	PerfectScoreBonus float64 `json:"perfect_score_bonus"`
}

type ModulesResponse struct {
	Modules      []catalog.Module    `json:"modules"`
	Total        int                 `json:"total"`
	RewardConfig RewardConfigSummary `json:"reward_config"`
}

type CalculateResponse struct {
	ModuleID    string `json:"module_id"`
	ModuleTitle string `json:"module_title"`
	*rewards.Reward
}

type CompletionResults struct {
	Accuracy          float64 `json:"accuracy"`
	QuestionsAnswered int     `json:"questions_answered"`
	CorrectAnswers    int     `json:"correct_answers"`
	TimeSpentSeconds  int     `json:"time_spent_seconds"`
}

type RewardWithXP struct {
	*rewards.Reward
	XPEarned int64 `json:"xp_earned"`
}

type CompleteResponse struct {
	Status      string            `json:"status"`
	ModuleID    string            `json:"module_id"`
	ModuleTitle string            `json:"module_title"`
	Timestamp   time.Time         `json:"timestamp"`
	Results     CompletionResults `json:"results"`
	Rewards     RewardWithXP      `json:"rewards"`
	NewStreak   int               `json:"new_streak"`
	LedgerProof string            `json:"ledger_proof,omitempty"`
	NewBalance  *float64          `json:"new_balance,omitempty"`
}

type HealthRewardConfig struct {
	MinimumAccuracy       float64            `json:"minimum_accuracy"`
	PerfectScoreBonus     float64            `json:"perfect_score_bonus"`
	DifficultyMultipliers map[string]float64 `json:"difficulty_multipliers"`
}

type HealthResponse struct {
	Status               string             `json:"status"`
	ModulesAvailable     int                `json:"modules_available"`
	GII                  float64            `json:"gii"`
	CircuitBreakerActive bool               `json:"circuit_breaker_active"`
	RewardConfig         HealthRewardConfig `json:"reward_config"`
}
