package integrity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Snapshot sources.
const (
	SourceRemote = "remote"
	SourceManual = "manual"
)

// Snapshot is one recorded GII observation.
type Snapshot struct {
	ID         int64     `json:"id"`
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Record appends a snapshot after validating its range.
func (r *SnapshotRepository) Record(ctx context.Context, value float64, source string) (*Snapshot, error) {
	if err := Validate(value); err != nil {
		return nil, err
	}
	s := Snapshot{Value: value, Source: source}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO gii_snapshots (value, source)
		VALUES ($1, $2)
		RETURNING id, observed_at
	`, value, source).Scan(&s.ID, &s.ObservedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Latest returns the newest snapshot, or pgx.ErrNoRows when none exist.
func (r *SnapshotRepository) Latest(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx, `
		SELECT id, value::float8, source, observed_at
		FROM gii_snapshots ORDER BY observed_at DESC, id DESC LIMIT 1
	`).Scan(&s.ID, &s.Value, &s.Source, &s.ObservedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
