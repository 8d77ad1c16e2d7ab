package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
	"github.com/kaizencycle/mobius-browser-shell/internal/testdb"
)

func TestRepository_Postgres(t *testing.T) {
	pool := testdb.New(t)
	repo := NewRepository(pool)
	svc := NewService(repo, integrity.NewStatic(0.95), quietLog)
	ctx := context.Background()

	r1, err := svc.WriteEntry(ctx, models.NewEntry{
		UserID: "u1", Amount: dec("50.25"), Reason: models.ReasonLearn,
		Source: "learning_module_completion", Meta: map[string]any{"module_id": "drift-suppression"},
		IntegrityScore: 0.91,
	})
	require.NoError(t, err)
	assert.True(t, dec("50.25").Equal(r1.NewBalance))

	r2, err := svc.WriteEntry(ctx, entry("u1", "-10.25", models.ReasonCorrection, "admin_correction"))
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(r2.NewBalance))

	_, err = svc.WriteEntry(ctx, entry("u2", "7", models.ReasonCivic, "civic_radar_action_taken"))
	require.NoError(t, err)

	t.Run("derived reads", func(t *testing.T) {
		bal, err := svc.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, dec("40").Equal(bal))

		earned, err := svc.TotalEarned(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, dec("50.25").Equal(earned))

		sum, err := svc.Summary(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, sum.EventCount)
		require.NotNil(t, sum.LastUpdated)
		assert.WithinDuration(t, time.Now(), *sum.LastUpdated, time.Minute)
	})

	t.Run("list newest first", func(t *testing.T) {
		events, err := svc.ListEvents(ctx, "u1", 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, r2.Entry.ID, events[0].ID)
		assert.Equal(t, r1.Entry.ID, events[1].ID)
		assert.Equal(t, "drift-suppression", events[1].Meta["module_id"])
		assert.Equal(t, 0.91, events[1].IntegrityScore)
		assert.Equal(t, models.ReasonLearn, events[1].Reason)
	})

	t.Run("stats", func(t *testing.T) {
		st, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, st.TotalEntries)
		assert.Equal(t, 2, st.UniqueUsers)
		assert.True(t, dec("57.25").Equal(st.TotalMinted))
		assert.Equal(t, 1, st.EntriesByReason["CIVIC"])
		assert.Equal(t, 1, st.EntriesBySource["admin_correction"])
	})

	t.Run("rows are immutable", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE mic_ledger SET amount = 1000 WHERE id = $1`, r1.Entry.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "append-only")

		_, err = pool.Exec(ctx, `DELETE FROM mic_ledger WHERE id = $1`, r1.Entry.ID)
		require.Error(t, err)

		_, err = pool.Exec(ctx, `TRUNCATE mic_ledger`)
		require.Error(t, err)

		bal, err := repo.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, dec("40").Equal(bal))
	})
}
