// Package ledger is the MIC ledger and wallet: an append-only log of signed
// credit entries from which every balance is derived.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/metrics"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// Page size limits for the event feed and the full history view.
const (
	DefaultEventsLimit  = 20
	MaxEventsLimit      = 100
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type Service interface {
	WriteEntry(ctx context.Context, in models.NewEntry) (*models.Receipt, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	TotalEarned(ctx context.Context, userID string) (decimal.Decimal, error)
	ListEvents(ctx context.Context, userID string, limit, offset int) ([]*models.LedgerEntry, error)
	History(ctx context.Context, userID string, limit, offset int) (*models.LedgerHistory, error)
	Summary(ctx context.Context, userID string) (*models.WalletSummary, error)
	Stats(ctx context.Context) (*models.LedgerStats, error)
	Status(ctx context.Context) (*IntegrityStatus, error)
	Earn(ctx context.Context, userID, source string, meta map[string]any) (*models.Receipt, error)
}

// IntegrityStatus reports the circuit breaker as seen by the ledger.
type IntegrityStatus struct {
	GII                  float64
	Multiplier           float64
	Band                 string
	CircuitBreakerActive bool
	Message              string
	TotalEntries         int
	Thresholds           integrity.Thresholds
}

type service struct {
	store      Store
	gii        integrity.Provider
	thresholds integrity.Thresholds
	log        *slog.Logger
	now        func() time.Time
}

// NewService returns the ledger service. gii is consulted on every write.
func NewService(store Store, gii integrity.Provider, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		store:      store,
		gii:        gii,
		thresholds: integrity.DefaultThresholds,
		log:        log,
		now:        time.Now,
	}
}

var _ Service = (*service)(nil)

func (s *service) WriteEntry(ctx context.Context, in models.NewEntry) (*models.Receipt, error) {
	if err := validateNewEntry(in); err != nil {
		metrics.RecordLedgerRejection(models.CodeInvalidInput)
		return nil, err
	}
	gii, err := s.currentGII(ctx)
	if err != nil {
		metrics.RecordLedgerRejection(models.CodeInternal)
		return nil, err
	}
	return s.append(ctx, in, gii)
}

// append enforces the circuit breaker against gii and persists the entry.
// in must already be validated.
func (s *service) append(ctx context.Context, in models.NewEntry, gii float64) (*models.Receipt, error) {
	amount := in.Amount.RoundBank(2)
	if amount.IsPositive() && s.thresholds.Halted(gii) {
		metrics.RecordLedgerRejection(models.CodeCircuitBreakerActive)
		s.log.Warn("mint blocked by circuit breaker", "user_id", in.UserID, "source", in.Source, "amount", amount.String(), "gii", gii)
		return nil, fmt.Errorf("%w: %s", models.ErrCircuitBreakerActive, s.thresholds.HaltMessage(gii))
	}

	meta := in.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	entry := &models.LedgerEntry{
		ID:             uuid.New(),
		UserID:         in.UserID,
		Amount:         amount,
		Reason:         in.Reason,
		Source:         in.Source,
		Meta:           meta,
		IntegrityScore: round4(in.IntegrityScore),
		GII:            round4(gii),
		CreatedAt:      s.now().UTC(),
	}
	balance, err := s.store.Append(ctx, entry)
	if err != nil {
		metrics.RecordLedgerRejection(models.CodeInternal)
		s.log.Error("append ledger entry", "user_id", in.UserID, "source", in.Source, "error", err)
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	metrics.RecordLedgerWrite(string(entry.Reason), amount.InexactFloat64())
	s.log.Info("ledger entry appended",
		"entry_id", entry.ID, "user_id", entry.UserID, "amount", amount.String(),
		"reason", entry.Reason, "source", entry.Source, "gii", entry.GII)

	return &models.Receipt{
		Entry:       entry,
		LedgerProof: "ledger:" + entry.ID.String(),
		NewBalance:  balance,
	}, nil
}

func (s *service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}
	return s.store.Balance(ctx, userID)
}

func (s *service) TotalEarned(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}
	return s.store.TotalEarned(ctx, userID)
}

func (s *service) ListEvents(ctx context.Context, userID string, limit, offset int) ([]*models.LedgerEntry, error) {
	if err := validatePage(userID, limit, offset); err != nil {
		return nil, err
	}
	return s.store.List(ctx, userID, limit, offset)
}

func (s *service) History(ctx context.Context, userID string, limit, offset int) (*models.LedgerHistory, error) {
	if err := validatePage(userID, limit, offset); err != nil {
		return nil, err
	}
	sum, err := s.store.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.LedgerHistory{
		TotalEntries: sum.EventCount,
		Offset:       offset,
		Limit:        limit,
		HasMore:      offset+limit < sum.EventCount,
		Entries:      entries,
		Balance:      sum.Balance,
		TotalEarned:  sum.TotalEarned,
	}, nil
}

func (s *service) Summary(ctx context.Context, userID string) (*models.WalletSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}
	return s.store.Summary(ctx, userID)
}

func (s *service) Stats(ctx context.Context) (*models.LedgerStats, error) {
	return s.store.Stats(ctx)
}

func (s *service) Status(ctx context.Context) (*IntegrityStatus, error) {
	gii, err := s.currentGII(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.store.TotalEntries(ctx)
	if err != nil {
		return nil, err
	}
	st := &IntegrityStatus{
		GII:                  gii,
		Multiplier:           s.thresholds.Multiplier(gii),
		Band:                 s.thresholds.Band(gii),
		CircuitBreakerActive: s.thresholds.Halted(gii),
		TotalEntries:         total,
		Thresholds:           s.thresholds,
	}
	if st.CircuitBreakerActive {
		st.Message = s.thresholds.HaltMessage(gii)
	}
	return st, nil
}

func (s *service) currentGII(ctx context.Context) (float64, error) {
	gii, err := s.gii.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("read integrity index: %w", err)
	}
	if err := integrity.Validate(gii); err != nil {
		return 0, fmt.Errorf("read integrity index: %w", err)
	}
	return gii, nil
}

// maxAbsAmount is the first magnitude mic_ledger.amount NUMERIC(12,2)
// cannot hold.
var maxAbsAmount = decimal.New(1, 10)

func validateNewEntry(in models.NewEntry) error {
	switch {
	case in.UserID == "":
		return fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	case !in.Reason.Valid():
		return fmt.Errorf("%w: unknown reason %q", models.ErrInvalidInput, in.Reason)
	case in.Source == "":
		return fmt.Errorf("%w: source is required", models.ErrInvalidInput)
	case in.Amount.RoundBank(2).Abs().GreaterThanOrEqual(maxAbsAmount):
		return fmt.Errorf("%w: amount magnitude must be below %s", models.ErrInvalidInput, maxAbsAmount.String())
	case math.IsNaN(in.IntegrityScore) || in.IntegrityScore < 0 || in.IntegrityScore > 1:
		return fmt.Errorf("%w: integrity score must be between 0 and 1", models.ErrInvalidInput)
	}
	return nil
}

func validatePage(userID string, limit, offset int) error {
	switch {
	case userID == "":
		return fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	case limit < 0:
		return fmt.Errorf("%w: limit must be >= 0", models.ErrInvalidInput)
	case offset < 0:
		return fmt.Errorf("%w: offset must be >= 0", models.ErrInvalidInput)
	}
	return nil
}

// ClampLimit applies a page size default and ceiling to a requested limit.
func ClampLimit(requested, def, ceiling int) int {
	if requested <= 0 {
		return def
	}
	return min(requested, ceiling)
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(4).InexactFloat64()
}
