package wallet

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/handlers"
	"github.com/kaizencycle/mobius-browser-shell/internal/ledger"
	"github.com/kaizencycle/mobius-browser-shell/internal/middleware"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// SourceAdminCorrection is the default source of admin-issued corrections.
const SourceAdminCorrection = "admin_correction"

// MetaValidator checks entry metadata for a source.
type MetaValidator interface {
	ValidateMeta(source string, meta map[string]any) error
}

// Handler serves the /mic wallet endpoints.
type Handler struct {
	svc  ledger.Service
	meta MetaValidator
	log  *slog.Logger
}

// NewHandler returns a wallet handler. meta may be nil to skip metadata
// validation.
func NewHandler(svc ledger.Service, meta MetaValidator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, meta: meta, log: log}
}

// --- GET /mic/wallet ---

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	sum, err := h.svc.Summary(r.Context(), userID)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	st, err := h.svc.Status(r.Context())
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, WalletResponse{
		UserID:               userID,
		Balance:              sum.Balance.InexactFloat64(),
		TotalEarned:          sum.TotalEarned.InexactFloat64(),
		EventCount:           sum.EventCount,
		LastUpdated:          sum.LastUpdated,
		GII:                  st.GII,
		CircuitBreakerActive: st.CircuitBreakerActive,
	})
}

// --- GET /mic/events ---

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, offset, err := page(r, ledger.DefaultEventsLimit, ledger.MaxEventsLimit)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	events, err := h.svc.ListEvents(r.Context(), userID, limit, offset)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, entriesToResponse(events))
}

// --- POST /mic/earn ---

func (h *Handler) Earn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req EarnRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	req.Source = strings.TrimSpace(req.Source)
	if req.Source == "" {
		handlers.WriteError(w, h.log, fmt.Errorf("%w: source is required", models.ErrInvalidInput))
		return
	}
	if h.meta != nil {
		if err := h.meta.ValidateMeta(req.Source, req.Meta); err != nil {
			handlers.WriteError(w, h.log, err)
			return
		}
	}
	receipt, err := h.svc.Earn(r.Context(), userID, req.Source, req.Meta)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, receiptToResponse(receipt))
}

// --- GET /mic/ledger ---

func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, offset, err := page(r, ledger.DefaultHistoryLimit, ledger.MaxHistoryLimit)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	hist, err := h.svc.History(r.Context(), userID, limit, offset)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, LedgerResponse{
		TotalEntries: hist.TotalEntries,
		Offset:       hist.Offset,
		Limit:        hist.Limit,
		HasMore:      hist.HasMore,
		Entries:      entriesToResponse(hist.Entries),
		Summary: LedgerSummary{
			Balance:     hist.Balance.InexactFloat64(),
			TotalEarned: hist.TotalEarned.InexactFloat64(),
		},
	})
}

// --- GET /mic/health ---

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	resp := HealthResponse{
		Status:               "healthy",
		GII:                  st.GII,
		GIIMultiplier:        st.Multiplier,
		Band:                 st.Band,
		CircuitBreakerActive: st.CircuitBreakerActive,
		TotalLedgerEntries:   st.TotalEntries,
		Config:               HealthConfig{Thresholds: st.Thresholds},
	}
	if st.CircuitBreakerActive {
		resp.Status = "degraded"
		msg := st.Message
		resp.CircuitBreakerMessage = &msg
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// --- GET /mic/admin/ledger-stats ---

func (h *Handler) LedgerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	st, err := h.svc.Status(r.Context())
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, StatsResponse{
		TotalEntries:    stats.TotalEntries,
		TotalMinted:     stats.TotalMinted.InexactFloat64(),
		UniqueUsers:     stats.UniqueUsers,
		EntriesByReason: stats.EntriesByReason,
		EntriesBySource: stats.EntriesBySource,
		GII:             st.GII,
	})
}

// --- POST /mic/admin/corrections ---

// CreateCorrection appends a CORRECTION entry for another user. Negative
// amounts are deductions; positive amounts are subject to the circuit
// breaker like any mint.
func (h *Handler) CreateCorrection(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CorrectionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		handlers.WriteError(w, h.log, fmt.Errorf("%w: amount must be a decimal number", models.ErrInvalidInput))
		return
	}
	if amount.IsZero() {
		handlers.WriteError(w, h.log, fmt.Errorf("%w: amount must be non-zero", models.ErrInvalidInput))
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = SourceAdminCorrection
	}
	meta := map[string]any{"note": strings.TrimSpace(req.Note), "corrected_by": adminID}
	if h.meta != nil {
		if err := h.meta.ValidateMeta(source, meta); err != nil {
			handlers.WriteError(w, h.log, err)
			return
		}
	}
	receipt, err := h.svc.WriteEntry(r.Context(), models.NewEntry{
		UserID:         strings.TrimSpace(req.UserID),
		Amount:         amount,
		Reason:         models.ReasonCorrection,
		Source:         source,
		Meta:           meta,
		IntegrityScore: 1.0,
	})
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	h.log.Info("ledger correction issued", "admin_id", adminID, "user_id", receipt.Entry.UserID, "amount", receipt.Entry.Amount.String())
	handlers.WriteJSON(w, http.StatusCreated, receiptToResponse(receipt))
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromCtx(r.Context())
	if userID == "" {
		handlers.WriteCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return userID, true
}

func page(r *http.Request, def, ceiling int) (limit, offset int, err error) {
	limit, err = handlers.QueryInt(r, "limit", def)
	if err != nil {
		return 0, 0, err
	}
	offset, err = handlers.QueryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return ledger.ClampLimit(limit, def, ceiling), offset, nil
}
