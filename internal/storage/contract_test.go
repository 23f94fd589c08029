package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitline/internal/models"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	business := "biz-" + uuid.NewString()

	q := &models.Queue{Title: "Front desk", BusinessID: business, CreatedAt: base}
	require.NoError(t, s.CreateQueue(ctx, q))
	require.NotEmpty(t, q.ID)

	t.Run("GetQueue", func(t *testing.T) {
		got, err := s.GetQueue(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, "Front desk", got.Title)

		_, err = s.GetQueue(ctx, "missing-"+uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("WithinQueueMissingQueue", func(t *testing.T) {
		err := s.WithinQueue(ctx, "missing-"+uuid.NewString(), func(Tx) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	users := []string{"u1", "u2", "u3", "u4"}
	for i, u := range users {
		err := s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			n, err := tx.CountWaiting()
			if err != nil {
				return err
			}
			return tx.InsertEntry(&models.QueueEntry{
				QueueID:  q.ID,
				UserID:   u,
				Position: n + 1,
				Status:   models.StatusWaiting,
				JoinedAt: base.Add(time.Duration(i) * time.Second),
			})
		})
		require.NoError(t, err)
	}

	t.Run("DuplicateWaiting", func(t *testing.T) {
		err := s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			return tx.InsertEntry(&models.QueueEntry{
				QueueID: q.ID, UserID: "u1", Position: 5,
				Status: models.StatusWaiting, JoinedAt: base.Add(time.Minute),
			})
		})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		u1, err := s.LatestEntry(ctx, q.ID, "u1")
		require.NoError(t, err)

		boom := errors.New("boom")
		err = s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			if err := tx.SetStatus(u1.ID, models.StatusWaiting, models.StatusServed); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assertPositions(t, s, q.ID, map[string]int{"u1": 1, "u2": 2, "u3": 3, "u4": 4})
	})

	t.Run("CloseGapIgnoresNonPositivePosition", func(t *testing.T) {
		err := s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			for _, vacated := range []int{0, -1} {
				shifted, err := tx.CloseGap(vacated)
				if err != nil {
					return err
				}
				assert.Zero(t, shifted, "vacated %d", vacated)
			}
			return nil
		})
		require.NoError(t, err)
		assertPositions(t, s, q.ID, map[string]int{"u1": 1, "u2": 2, "u3": 3, "u4": 4})
	})

	t.Run("SetStatusAndCloseGap", func(t *testing.T) {
		u2, err := s.LatestEntry(ctx, q.ID, "u2")
		require.NoError(t, err)

		err = s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			if err := tx.SetStatus(u2.ID, models.StatusWaiting, models.StatusServed); err != nil {
				return err
			}
			shifted, err := tx.CloseGap(u2.Position)
			if err != nil {
				return err
			}
			assert.Equal(t, 2, shifted)

			// second call finds the gap closed
			shifted, err = tx.CloseGap(u2.Position)
			if err != nil {
				return err
			}
			assert.Equal(t, 0, shifted)
			return nil
		})
		require.NoError(t, err)
		assertPositions(t, s, q.ID, map[string]int{"u1": 1, "u3": 2, "u4": 3})

		served, err := s.LatestEntry(ctx, q.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, models.StatusServed, served.Status)
		assert.Equal(t, 2, served.Position)

		err = s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			return tx.SetStatus(u2.ID, models.StatusWaiting, models.StatusSkipped)
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("WaitingAt", func(t *testing.T) {
		err := s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			e, err := tx.WaitingAt(2)
			require.NoError(t, err)
			assert.Equal(t, "u3", e.UserID)
			_, err = tx.WaitingAt(9)
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("RejoinAfterTerminal", func(t *testing.T) {
		err := s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			return tx.InsertEntry(&models.QueueEntry{
				QueueID: q.ID, UserID: "u2", Position: 4,
				Status: models.StatusWaiting, JoinedAt: base.Add(time.Hour),
			})
		})
		require.NoError(t, err)

		latest, err := s.LatestEntry(ctx, q.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, latest.Status)
		assert.Equal(t, 4, latest.Position)

		entries, err := s.UserEntries(ctx, "u2")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		counts, err := s.CountByStatus(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, counts[models.StatusWaiting])
		assert.Equal(t, 1, counts[models.StatusServed])
		assert.Equal(t, 5, counts.Total())
	})

	t.Run("LatestEntryTieBreak", func(t *testing.T) {
		tied := &models.Queue{Title: "Tied", BusinessID: "tie-" + uuid.NewString(), CreatedAt: base}
		require.NoError(t, s.CreateQueue(ctx, tied))

		at := base.Add(2 * time.Hour)
		err := s.WithinQueue(ctx, tied.ID, func(tx Tx) error {
			if err := tx.InsertEntry(&models.QueueEntry{
				QueueID: tied.ID, UserID: "u9", Position: 1,
				Status: models.StatusWaiting, JoinedAt: at,
			}); err != nil {
				return err
			}
			return tx.InsertEntry(&models.QueueEntry{
				QueueID: tied.ID, UserID: "u9", Position: 1,
				Status: models.StatusServed, JoinedAt: at,
			})
		})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			latest, err := s.LatestEntry(ctx, tied.ID, "u9")
			require.NoError(t, err)
			assert.Equal(t, models.StatusWaiting, latest.Status)
		}
	})

	t.Run("ListQueues", func(t *testing.T) {
		other := &models.Queue{Title: "Pharmacy", BusinessID: business, CreatedAt: base.Add(time.Second)}
		require.NoError(t, s.CreateQueue(ctx, other))

		queues, err := s.ListQueues(ctx, business)
		require.NoError(t, err)
		require.Len(t, queues, 2)
		assert.Equal(t, q.ID, queues[0].ID)
		assert.Equal(t, other.ID, queues[1].ID)

		all, err := s.AllQueues(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 2)
	})
}

func assertPositions(t *testing.T, s Store, queueID string, want map[string]int) {
	t.Helper()
	entries, err := s.WaitingEntries(context.Background(), queueID)
	require.NoError(t, err)
	got := make(map[string]int, len(entries))
	for i, e := range entries {
		got[e.UserID] = e.Position
		assert.Equal(t, i+1, e.Position, fmt.Sprintf("entry %s out of order", e.UserID))
	}
	assert.Equal(t, want, got)
}
