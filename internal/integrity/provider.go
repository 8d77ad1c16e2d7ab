package integrity

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
)

// Provider reports the current Global Integrity Index. It is read
// synchronously before every mint decision.
type Provider interface {
	Current(ctx context.Context) (float64, error)
}

// Static is a Provider holding a single settable value.
type Static struct {
	bits atomic.Uint64
}

// NewStatic returns a Static provider reporting gii.
func NewStatic(gii float64) *Static {
	s := &Static{}
	s.Set(gii)
	return s
}

// Set replaces the reported value.
func (s *Static) Set(gii float64) {
	s.bits.Store(math.Float64bits(gii))
}

func (s *Static) Current(context.Context) (float64, error) {
	return math.Float64frombits(s.bits.Load()), nil
}

// SnapshotReader returns the most recent recorded GII snapshot.
type SnapshotReader interface {
	Latest(ctx context.Context) (*Snapshot, error)
}

// SnapshotProvider reports the latest durable snapshot, falling back to a
// fixed value until the first snapshot has been recorded.
type SnapshotProvider struct {
	reader   SnapshotReader
	fallback float64
	log      *slog.Logger
}

// NewSnapshotProvider returns a Provider backed by reader.
func NewSnapshotProvider(reader SnapshotReader, fallback float64, log *slog.Logger) *SnapshotProvider {
	if log == nil {
		log = slog.Default()
	}
	return &SnapshotProvider{reader: reader, fallback: fallback, log: log}
}

func (p *SnapshotProvider) Current(ctx context.Context) (float64, error) {
	snap, err := p.reader.Latest(ctx)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && snap == nil) {
		p.log.Debug("no gii snapshot recorded, using fallback", "gii", p.fallback)
		return p.fallback, nil
	}
	if err != nil {
		return 0, err
	}
	return snap.Value, nil
}

var (
	_ Provider = (*Static)(nil)
	_ Provider = (*SnapshotProvider)(nil)
)
