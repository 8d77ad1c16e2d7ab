package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// Store is the append-only persistence behind the ledger. Implementations
// never update or delete an appended entry and must be safe for concurrent
// use. Balances are always derived from the stored entries.
type Store interface {
	// Append persists e atomically and returns the user's balance including e.
	Append(ctx context.Context, e *models.LedgerEntry) (decimal.Decimal, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	TotalEarned(ctx context.Context, userID string) (decimal.Decimal, error)
	Summary(ctx context.Context, userID string) (*models.WalletSummary, error)
	// List returns a page of the user's entries, newest first.
	List(ctx context.Context, userID string, limit, offset int) ([]*models.LedgerEntry, error)
	Count(ctx context.Context, userID string) (int, error)
	TotalEntries(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*models.LedgerStats, error)
}
