package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/metrics"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
	"github.com/kaizencycle/mobius-browser-shell/internal/rewards"
)

// Earn mints the reward for a completed activity identified by source.
//
// The amount is the source's base reward scaled by the GII multiplier, except
// for learning module completions carrying meta.mic_earned, which is taken as
// the already-computed reward. The GII is read once and used both for the
// multiplier and the circuit-breaker decision.
func (s *service) Earn(ctx context.Context, userID, source string, meta map[string]any) (*models.Receipt, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}
	if source == "" {
		return nil, fmt.Errorf("%w: source is required", models.ErrInvalidInput)
	}
	gii, err := s.currentGII(ctx)
	if err != nil {
		return nil, err
	}
	if s.thresholds.Halted(gii) {
		metrics.RecordLedgerRejection(models.CodeCircuitBreakerActive)
		return nil, fmt.Errorf("%w: %s", models.ErrCircuitBreakerActive, s.thresholds.HaltMessage(gii))
	}

	amount, err := earnAmount(source, meta, s.thresholds.Multiplier(gii))
	if err != nil {
		return nil, err
	}
	score := 1.0
	if v, ok, err := metaNumber(meta, "integrity_score"); err != nil {
		return nil, err
	} else if ok {
		score = v
	}

	in := models.NewEntry{
		UserID:         userID,
		Amount:         amount,
		Reason:         rewards.ReasonForSource(source),
		Source:         source,
		Meta:           meta,
		IntegrityScore: score,
	}
	if err := validateNewEntry(in); err != nil {
		return nil, err
	}
	return s.append(ctx, in, gii)
}

func earnAmount(source string, meta map[string]any, giiMultiplier float64) (decimal.Decimal, error) {
	if source == rewards.SourceLearningModuleCompletion {
		v, ok, err := metaNumber(meta, "mic_earned")
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			if v < 0 {
				return decimal.Zero, fmt.Errorf("%w: meta.mic_earned must be >= 0", models.ErrInvalidInput)
			}
			return decimal.NewFromFloat(v).RoundBank(2), nil
		}
	}
	base := decimal.NewFromInt(int64(rewards.SourceReward(source)))
	return base.Mul(decimal.NewFromFloat(giiMultiplier)).RoundBank(2), nil
}

// metaNumber reads a numeric meta field. ok is false when the key is absent
// or null.
func metaNumber(meta map[string]any, key string) (v float64, ok bool, err error) {
	raw, present := meta[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch n := raw.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, true, fmt.Errorf("%w: meta.%s must be a number", models.ErrInvalidInput, key)
		}
		return f, true, nil
	default:
		return 0, true, fmt.Errorf("%w: meta.%s must be a number", models.ErrInvalidInput, key)
	}
}
