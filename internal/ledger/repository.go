package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// Repository is the Postgres Store over the mic_ledger table. Amounts cross
// the driver boundary as text so NUMERIC precision is never routed through
// float64.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const entryColumns = `id, user_id, amount::text, reason::text, source, meta, integrity_score::float8, gii::float8, created_at`

// Append runs in its own transaction. It:
// a) takes a per-user advisory lock so concurrent appends serialize
// b) inserts the entry
// c) sums the user's entries to produce the post-append balance
func (r *Repository) Append(ctx context.Context, e *models.LedgerEntry) (decimal.Decimal, error) {
	meta, err := encodeMeta(e.Meta)
	if err != nil {
		return decimal.Zero, err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, e.UserID); err != nil {
		return decimal.Zero, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO mic_ledger (id, user_id, amount, reason, source, meta, integrity_score, gii, created_at)
		VALUES ($1, $2, $3::numeric, $4::text::mic_reason, $5, $6, $7, $8, $9)
	`, e.ID, e.UserID, e.Amount.String(), string(e.Reason), e.Source, meta, e.IntegrityScore, e.GII, e.CreatedAt)
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := sumText(ctx, tx, `SELECT COALESCE(SUM(amount), 0)::text FROM mic_ledger WHERE user_id = $1`, e.UserID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return bal, nil
}

func (r *Repository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return sumText(ctx, r.pool, `SELECT COALESCE(SUM(amount), 0)::text FROM mic_ledger WHERE user_id = $1`, userID)
}

func (r *Repository) TotalEarned(ctx context.Context, userID string) (decimal.Decimal, error) {
	return sumText(ctx, r.pool, `SELECT COALESCE(SUM(amount), 0)::text FROM mic_ledger WHERE user_id = $1 AND amount > 0`, userID)
}

func (r *Repository) Summary(ctx context.Context, userID string) (*models.WalletSummary, error) {
	var balance, earned string
	var count int
	var last *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text,
		       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::text,
		       COUNT(*),
		       MAX(created_at)
		FROM mic_ledger WHERE user_id = $1
	`, userID).Scan(&balance, &earned, &count, &last)
	if err != nil {
		return nil, err
	}
	s := &models.WalletSummary{UserID: userID, EventCount: count}
	if s.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if s.TotalEarned, err = decimal.NewFromString(earned); err != nil {
		return nil, fmt.Errorf("parse total earned: %w", err)
	}
	if last != nil {
		t := last.UTC()
		s.LastUpdated = &t
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, userID string, limit, offset int) ([]*models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM mic_ledger WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mic_ledger WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (r *Repository) TotalEntries(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mic_ledger`).Scan(&n)
	return n, err
}

func (r *Repository) Stats(ctx context.Context) (*models.LedgerStats, error) {
	st := &models.LedgerStats{EntriesByReason: map[string]int{}, EntriesBySource: map[string]int{}}
	var minted string
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::text,
		       COUNT(DISTINCT user_id)
		FROM mic_ledger
	`).Scan(&st.TotalEntries, &minted, &st.UniqueUsers)
	if err != nil {
		return nil, err
	}
	if st.TotalMinted, err = decimal.NewFromString(minted); err != nil {
		return nil, fmt.Errorf("parse total minted: %w", err)
	}
	if err := r.countBy(ctx, "reason::text", st.EntriesByReason); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "source", st.EntriesBySource); err != nil {
		return nil, err
	}
	return st, nil
}

// countBy fills dst with row counts grouped by column. column is one of
// the fixed expressions passed by Stats, never user input.
func (r *Repository) countBy(ctx context.Context, column string, dst map[string]int) error {
	rows, err := r.pool.Query(ctx, `SELECT `+column+`, COUNT(*) FROM mic_ledger GROUP BY 1`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumText(ctx context.Context, q queryRower, sql string, userID string) (decimal.Decimal, error) {
	var s string
	if err := q.QueryRow(ctx, sql, userID).Scan(&s); err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse sum %q: %w", s, err)
	}
	return d, nil
}

func scanEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	var amount, reason string
	var meta []byte
	if err := row.Scan(&e.ID, &e.UserID, &amount, &reason, &e.Source, &meta, &e.IntegrityScore, &e.GII, &e.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	e.Reason = models.Reason(reason)
	e.Meta = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func encodeMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: meta is not JSON-encodable: %v", models.ErrInvalidInput, err)
	}
	return b, nil
}
