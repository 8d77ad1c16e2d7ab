package wallet

import (
	"encoding/json"
	"time"

	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// Request/response structs use snake_case JSON; amounts render as numbers.

type EarnRequest struct {
	Source string         `json:"source"`
	Meta   map[string]any `json:"meta"`
}

// CorrectionRequest carries a signed decimal amount, either a JSON number or
// a numeric string.
type CorrectionRequest struct {
	UserID string      `json:"user_id"`
	Amount json.Number `json:"amount"`
	Note   string      `json:"note"`
	Source string      `json:"source"`
}

type EntryResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Amount         float64        `json:"amount"`
	Reason         string         `json:"reason"`
	Source         string         `json:"source"`
	Meta           map[string]any `json:"meta"`
	IntegrityScore float64        `json:"integrity_score"`
	GII            float64        `json:"gii"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ReceiptResponse struct {
	EntryResponse
	LedgerProof string  `json:"ledger_proof"`
	NewBalance  float64 `json:"new_balance"`
}

type WalletResponse struct {
	UserID               string     `json:"user_id"`
	Balance              float64    `json:"balance"`
	TotalEarned          float64    `json:"total_earned"`
	EventCount           int        `json:"event_count"`
	LastUpdated          *time.Time `json:"last_updated"`
	GII                  float64    `json:"gii"`
	CircuitBreakerActive bool       `json:"circuit_breaker_active"`
}

type LedgerSummary struct {
	Balance     float64 `json:"balance"`
	TotalEarned float64 `json:"total_earned"`
}

type LedgerResponse struct {
	TotalEntries int             `json:"total_entries"`
	Offset       int             `json:"offset"`
	Limit        int             `json:"limit"`
	HasMore      bool            `json:"has_more"`
	Entries      []EntryResponse `json:"entries"`
	Summary      LedgerSummary   `json:"summary"`
}

type HealthConfig struct {
	Thresholds integrity.Thresholds `json:"thresholds"`
}

type HealthResponse struct {
	Status                string       `json:"status"`
	GII                   float64      `json:"gii"`
	GIIMultiplier         float64      `json:"gii_multiplier"`
	Band                  string       `json:"band"`
	CircuitBreakerActive  bool         `json:"circuit_breaker_active"`
	CircuitBreakerMessage *string      `json:"circuit_breaker_message"`
	TotalLedgerEntries    int          `json:"total_ledger_entries"`
	Config                HealthConfig `json:"config"`
}

type StatsResponse struct {
	TotalEntries    int            `json:"total_entries"`
	TotalMinted     float64        `json:"total_minted"`
	UniqueUsers     int            `json:"unique_users"`
	EntriesByReason map[string]int `json:"entries_by_reason"`
	EntriesBySource map[string]int `json:"entries_by_source"`
	GII             float64        `json:"gii"`
}

func entryToResponse(e *models.LedgerEntry) EntryResponse {
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return EntryResponse{
		ID:             e.ID.String(),
		UserID:         e.UserID,
		Amount:         e.Amount.InexactFloat64(),
		Reason:         string(e.Reason),
		Source:         e.Source,
		Meta:           meta,
		IntegrityScore: e.IntegrityScore,
		GII:            e.GII,
		CreatedAt:      e.CreatedAt,
	}
}

func entriesToResponse(entries []*models.LedgerEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToResponse(e))
	}
	return out
}

func receiptToResponse(r *models.Receipt) ReceiptResponse {
	return ReceiptResponse{
		EntryResponse: entryToResponse(r.Entry),
		LedgerProof:   r.LedgerProof,
		NewBalance:    r.NewBalance.InexactFloat64(),
	}
}
