package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reason categorizes the origin class of a ledger entry.
type Reason string

// Ledger reason enums, matching the mic_reason Postgres type.
const (
	ReasonLearn      Reason = "LEARN"
	ReasonEarn       Reason = "EARN"
	ReasonCorrection Reason = "CORRECTION"
	ReasonBonus      Reason = "BONUS"
	ReasonReflection Reason = "REFLECTION"
	ReasonCivic      Reason = "CIVIC"
)

// Reasons lists every valid Reason in declaration order.
var Reasons = []Reason{ReasonLearn, ReasonEarn, ReasonCorrection, ReasonBonus, ReasonReflection, ReasonCivic}

// Valid reports whether r is one of the closed set of reasons.
func (r Reason) Valid() bool {
	for _, v := range Reasons {
		if r == v {
			return true
		}
	}
	return false
}

// LedgerEntry is one immutable MIC transaction. Amount is positive for
// earnings and negative for corrections/deductions.
type LedgerEntry struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         Reason          `json:"reason"`
	Source         string          `json:"source"`
	Meta           map[string]any  `json:"meta"`
	IntegrityScore float64         `json:"integrity_score"`
	GII            float64         `json:"gii"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewEntry is the caller-supplied part of a ledger write.
type NewEntry struct {
	UserID         string
	Amount         decimal.Decimal
	Reason         Reason
	Source         string
	Meta           map[string]any
	IntegrityScore float64
}

// Receipt is returned by a successful ledger write.
type Receipt struct {
	Entry       *LedgerEntry
	LedgerProof string
	NewBalance  decimal.Decimal
}

// WalletSummary is the derived view of a single user's ledger.
type WalletSummary struct {
	UserID      string
	Balance     decimal.Decimal
	TotalEarned decimal.Decimal
	EventCount  int
	LastUpdated *time.Time
}

// LedgerHistory is one page of a user's ledger plus running totals.
type LedgerHistory struct {
	TotalEntries int
	Offset       int
	Limit        int
	HasMore      bool
	Entries      []*LedgerEntry
	Balance      decimal.Decimal
	TotalEarned  decimal.Decimal
}

// LedgerStats aggregates the whole ledger across users.
type LedgerStats struct {
	TotalEntries    int
	TotalMinted     decimal.Decimal
	UniqueUsers     int
	EntriesByReason map[string]int
	EntriesBySource map[string]int
}
