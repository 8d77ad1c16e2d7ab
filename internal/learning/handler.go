// Package learning serves the learning hub: the module catalog, reward
// previews and module completion, which mints the reward into the ledger.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/catalog"
	"github.com/kaizencycle/mobius-browser-shell/internal/handlers"
	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/ledger"
	"github.com/kaizencycle/mobius-browser-shell/internal/metrics"
	"github.com/kaizencycle/mobius-browser-shell/internal/middleware"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
	"github.com/kaizencycle/mobius-browser-shell/internal/rewards"
)

// xpPerMIC converts earned MIC into experience points.
const xpPerMIC = 2

// Minter is the part of the ledger the learning hub writes through.
type Minter interface {
	WriteEntry(ctx context.Context, in models.NewEntry) (*models.Receipt, error)
}

type Handler struct {
	catalog *catalog.Catalog
	rewards rewards.Config
	gii     integrity.Provider
	ledger  Minter
	log     *slog.Logger
	now     func() time.Time
}

func NewHandler(cat *catalog.Catalog, cfg rewards.Config, gii integrity.Provider, minter Minter, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{catalog: cat, rewards: cfg, gii: gii, ledger: minter, log: log, now: time.Now}
}

var _ Minter = (ledger.Service)(nil)

// --- GET /learning/modules ---

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	mods := h.catalog.List(r.URL.Query().Get("difficulty"))
	handlers.WriteJSON(w, http.StatusOK, ModulesResponse{
		Modules: mods,
		Total:   len(mods),
		RewardConfig: RewardConfigSummary{
			MinimumAccuracy:   h.rewards.MinimumAccuracy,
			PerfectScoreBonus: h.rewards.PerfectScoreBonus,
		},
	})
}

// --- GET /learning/modules/{id} ---

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, m)
}

// --- POST /learning/calculate-reward ---

// CalculateReward previews the reward for a hypothetical completion at the
// current GII. Nothing is written; zero-reward outcomes are reported as
// flags rather than errors.
func (h *Handler) CalculateReward(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	m, reward, err := h.calculate(r.Context(), req.ModuleID, req.Accuracy, req.Streak)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, CalculateResponse{
		ModuleID:    m.ID,
		ModuleTitle: m.Title,
		Reward:      reward,
	})
}

// --- POST /learning/complete ---

// Complete records a module completion for the authenticated user and
// mints the computed reward. A halted GII or insufficient accuracy is
// reported as an error so the client can tell the two apart.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromCtx(r.Context())
	if userID == "" {
		handlers.WriteCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	var req CompleteRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	m, reward, err := h.calculate(r.Context(), req.ModuleID, req.Accuracy, req.Streak)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	metrics.RecordRewardOutcome(outcome(reward))
	if err := reward.Err(); err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}

	resp := CompleteResponse{
		Status:      "completed",
		ModuleID:    m.ID,
		ModuleTitle: m.Title,
		Timestamp:   h.now().UTC(),
		Results: CompletionResults{
			Accuracy:          req.Accuracy,
			QuestionsAnswered: req.QuestionsAnswered,
			CorrectAnswers:    req.CorrectAnswers,
			TimeSpentSeconds:  req.TimeSpentSeconds,
		},
		Rewards: RewardWithXP{Reward: reward, XPEarned: reward.MICEarned * xpPerMIC},
	}
	if reward.MICEarned > 0 {
		receipt, err := h.ledger.WriteEntry(r.Context(), models.NewEntry{
			UserID: userID,
			Amount: decimal.NewFromInt(reward.MICEarned),
			Reason: models.ReasonLearn,
			Source: rewards.SourceLearningModuleCompletion,
			Meta: map[string]any{
				"module_id":  m.ID,
				"accuracy":   req.Accuracy,
				"streak":     req.Streak,
				"difficulty": m.Difficulty,
				"mic_earned": reward.MICEarned,
			},
			IntegrityScore: 1.0,
		})
		if err != nil {
			handlers.WriteError(w, h.log, err)
			return
		}
		resp.NewStreak = req.Streak + 1
		resp.LedgerProof = receipt.LedgerProof
		bal := receipt.NewBalance.InexactFloat64()
		resp.NewBalance = &bal
	}
	h.log.Info("module completed", "user_id", userID, "module_id", m.ID, "accuracy", req.Accuracy, "mic_earned", reward.MICEarned)
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// --- GET /learning/health ---

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	gii, err := h.currentGII(r.Context())
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:               "healthy",
		ModulesAvailable:     h.catalog.Len(),
		GII:                  gii,
		CircuitBreakerActive: h.rewards.Thresholds.Halted(gii),
		RewardConfig: HealthRewardConfig{
			MinimumAccuracy:       h.rewards.MinimumAccuracy,
			PerfectScoreBonus:     h.rewards.PerfectScoreBonus,
			DifficultyMultipliers: h.rewards.DifficultyMultipliers,
		},
	})
}

func (h *Handler) calculate(ctx context.Context, moduleID string, accuracy float64, streak int) (catalog.Module, *rewards.Reward, error) {
	if moduleID == "" {
		return catalog.Module{}, nil, fmt.Errorf("%w: module_id is required", models.ErrInvalidInput)
	}
	m, err := h.catalog.Get(moduleID)
	if err != nil {
		return catalog.Module{}, nil, err
	}
	gii, err := h.currentGII(ctx)
	if err != nil {
		return catalog.Module{}, nil, err
	}
	reward, err := h.rewards.Calculate(rewards.Input{
		BaseReward: m.MICReward,
		Accuracy:   accuracy,
		Difficulty: m.Difficulty,
		Streak:     streak,
		GII:        gii,
	})
	if err != nil {
		return catalog.Module{}, nil, err
	}
	return m, reward, nil
}

func (h *Handler) currentGII(ctx context.Context) (float64, error) {
	gii, err := h.gii.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("read integrity index: %w", err)
	}
	if err := integrity.Validate(gii); err != nil {
		return 0, fmt.Errorf("read integrity index: %w", err)
	}
	return gii, nil
}

func outcome(r *rewards.Reward) string {
	switch {
	case r.CircuitBreakerActive:
		return metrics.OutcomeCircuitBreaker
	case r.AccuracyTooLow:
		return metrics.OutcomeAccuracyTooLow
	case r.MICEarned > 0:
		return metrics.OutcomeMinted
	default:
		return metrics.OutcomeZero
	}
}
