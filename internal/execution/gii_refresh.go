// Package execution holds the background workers run by the River client.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/metrics"
)

type RefreshIntegrityArgs struct{}

func (RefreshIntegrityArgs) Kind() string { return "refresh_integrity" }

// IndexSource reports the current integrity index from upstream.
type IndexSource interface {
	Fetch(ctx context.Context) (float64, error)
}

// SnapshotRecorder persists an observed index value.
type SnapshotRecorder interface {
	Record(ctx context.Context, value float64, source string) (*integrity.Snapshot, error)
}

// RefreshIntegrityWorker pulls the integrity index from the remote MII
// endpoint and records it as the snapshot the ledger reads on every mint.
type RefreshIntegrityWorker struct {
	river.WorkerDefaults[RefreshIntegrityArgs]
	source    IndexSource
	snapshots SnapshotRecorder
	log       *slog.Logger
}

func NewRefreshIntegrityWorker(source IndexSource, snapshots SnapshotRecorder, log *slog.Logger) *RefreshIntegrityWorker {
	if log == nil {
		log = slog.Default()
	}
	return &RefreshIntegrityWorker{source: source, snapshots: snapshots, log: log}
}

func (w *RefreshIntegrityWorker) Timeout(*river.Job[RefreshIntegrityArgs]) time.Duration {
	return 45 * time.Second
}

// Work returns an error on fetch or record failure so River retries; the
// previous snapshot stays in effect meanwhile.
func (w *RefreshIntegrityWorker) Work(ctx context.Context, _ *river.Job[RefreshIntegrityArgs]) error {
	value, err := w.source.Fetch(ctx)
	if err != nil {
		metrics.RecordGIIRefresh(false)
		return fmt.Errorf("fetch integrity index: %w", err)
	}
	snap, err := w.snapshots.Record(ctx, value, integrity.SourceRemote)
	if err != nil {
		metrics.RecordGIIRefresh(false)
		return fmt.Errorf("record integrity snapshot: %w", err)
	}
	metrics.SetGII(snap.Value)
	metrics.RecordGIIRefresh(true)
	w.log.Info("integrity index refreshed", "gii", snap.Value, "snapshot_id", snap.ID)
	return nil
}

// PeriodicRefresh schedules RefreshIntegrityArgs every interval, starting
// as soon as the client boots.
func PeriodicRefresh(interval time.Duration) *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return RefreshIntegrityArgs{}, &river.InsertOpts{
				UniqueOpts: river.UniqueOpts{ByPeriod: interval},
			}
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
