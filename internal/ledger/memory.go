package ledger

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// MemoryStore is an in-process Store used as the test double for Service
// and by callers embedding the ledger without Postgres (cmd/api always uses
// Repository). Entries live in append order; nothing is ever removed, and
// stored entries share no memory with callers.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*models.LedgerEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Append(_ context.Context, e *models.LedgerEntry) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, cloneEntry(e))
	return m.balanceLocked(e.UserID), nil
}

func (m *MemoryStore) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceLocked(userID), nil
}

func (m *MemoryStore) TotalEarned(_ context.Context, userID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.entries {
		if e.UserID == userID && e.Amount.IsPositive() {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (m *MemoryStore) Summary(_ context.Context, userID string) (*models.WalletSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &models.WalletSummary{UserID: userID, Balance: decimal.Zero, TotalEarned: decimal.Zero}
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		s.Balance = s.Balance.Add(e.Amount)
		if e.Amount.IsPositive() {
			s.TotalEarned = s.TotalEarned.Add(e.Amount)
		}
		s.EventCount++
		if s.LastUpdated == nil || !e.CreatedAt.Before(*s.LastUpdated) {
			t := e.CreatedAt
			s.LastUpdated = &t
		}
	}
	return s, nil
}

func (m *MemoryStore) List(_ context.Context, userID string, limit, offset int) ([]*models.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type indexed struct {
		seq int
		e   *models.LedgerEntry
	}
	var mine []indexed
	for i, e := range m.entries {
		if e.UserID == userID {
			mine = append(mine, indexed{seq: i, e: e})
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		a, b := mine[i], mine[j]
		if !a.e.CreatedAt.Equal(b.e.CreatedAt) {
			return a.e.CreatedAt.After(b.e.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := []*models.LedgerEntry{}
	for i := max(offset, 0); i < len(mine) && len(out) < limit; i++ {
		out = append(out, cloneEntry(mine[i].e))
	}
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) TotalEntries(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MemoryStore) Stats(context.Context) (*models.LedgerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &models.LedgerStats{
		TotalMinted:     decimal.Zero,
		EntriesByReason: map[string]int{},
		EntriesBySource: map[string]int{},
	}
	users := map[string]struct{}{}
	for _, e := range m.entries {
		st.TotalEntries++
		if e.Amount.IsPositive() {
			st.TotalMinted = st.TotalMinted.Add(e.Amount)
		}
		users[e.UserID] = struct{}{}
		st.EntriesByReason[string(e.Reason)]++
		st.EntriesBySource[e.Source]++
	}
	st.UniqueUsers = len(users)
	return st, nil
}

func (m *MemoryStore) balanceLocked(userID string) decimal.Decimal {
	bal := decimal.Zero
	for _, e := range m.entries {
		if e.UserID == userID {
			bal = bal.Add(e.Amount)
		}
	}
	return bal
}

func cloneEntry(e *models.LedgerEntry) *models.LedgerEntry {
	c := *e
	c.Meta = cloneMeta(e.Meta)
	return &c
}

// cloneMeta deep-copies meta through its JSON form, which is also what
// Repository persists. Service.append only passes JSON-encodable meta.
func cloneMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
