package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitline/internal/models"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreReadersSeeCommittedState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	q := &models.Queue{Title: "q", BusinessID: "b", CreatedAt: time.Now()}
	require.NoError(t, s.CreateQueue(ctx, q))

	inside := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.WithinQueue(ctx, q.ID, func(tx Tx) error {
			err := tx.InsertEntry(&models.QueueEntry{
				QueueID: q.ID, UserID: "u1", Position: 1,
				Status: models.StatusWaiting, JoinedAt: time.Now(),
			})
			close(inside)
			<-release
			return err
		})
	}()

	<-inside
	_, err := s.LatestEntry(ctx, q.ID, "u1")
	assert.ErrorIs(t, err, ErrNotFound, "uncommitted insert must not be visible")
	close(release)
	wg.Wait()

	e, err := s.LatestEntry(ctx, q.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Position)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	q := &models.Queue{Title: "q", BusinessID: "b"}
	require.NoError(t, s.CreateQueue(context.Background(), q))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.WithinQueue(ctx, q.ID, func(Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreUnknownQueueLeavesNoWriter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	q := &models.Queue{Title: "q", BusinessID: "b"}
	require.NoError(t, s.CreateQueue(ctx, q))

	for i := 0; i < 50; i++ {
		err := s.WithinQueue(ctx, fmt.Sprintf("ghost-%d", i), func(Tx) error { return nil })
		require.ErrorIs(t, err, ErrNotFound)
	}
	require.NoError(t, s.WithinQueue(ctx, q.ID, func(Tx) error { return nil }))

	writers := 0
	s.writers.Range(func(_, _ any) bool {
		writers++
		return true
	})
	assert.Equal(t, 1, writers)
}
