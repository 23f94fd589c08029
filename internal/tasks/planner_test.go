package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"waitline/internal/log"
	"waitline/internal/models"
	"waitline/internal/queue"
	"waitline/internal/storage"
)

func TestAuditQueuesReportsGaps(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := queue.New(store)

	healthy, err := engine.CreateQueue(ctx, "biz", "Healthy")
	require.NoError(t, err)
	broken, err := engine.CreateQueue(ctx, "biz", "Broken")
	require.NoError(t, err)
	for _, u := range []string{"a", "b", "c"} {
		_, err := engine.Join(ctx, healthy.ID, u)
		require.NoError(t, err)
		_, err = engine.Join(ctx, broken.ID, u)
		require.NoError(t, err)
	}

	// Serve the head of the broken queue without closing the gap.
	require.NoError(t, store.WithinQueue(ctx, broken.ID, func(tx storage.Tx) error {
		head, err := tx.WaitingAt(1)
		if err != nil {
			return err
		}
		return tx.SetStatus(head.ID, models.StatusWaiting, models.StatusServed)
	}))

	core, logs := observer.New(zapcore.InfoLevel)
	n := AuditQueues(ctx, engine, log.New(zap.New(core)))
	assert.Equal(t, 1, n)

	violations := logs.FilterMessage("queue positions out of order").All()
	require.Len(t, violations, 1)
	assert.Equal(t, broken.ID, violations[0].ContextMap()["queue_id"])

	_, err = engine.Renumber(ctx, broken.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, AuditQueues(ctx, engine, log.NewNop()))
}

type auditorFunc func(ctx context.Context) (map[string]error, error)

func (f auditorFunc) AuditAll(ctx context.Context) (map[string]error, error) { return f(ctx) }

func TestAuditQueuesStoreFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	n := AuditQueues(context.Background(), auditorFunc(func(context.Context) (map[string]error, error) {
		return nil, errors.New("db down")
	}), log.New(zap.New(core)))
	assert.Zero(t, n)
	assert.Equal(t, 1, logs.FilterMessage("position audit failed").Len())
}

func TestInitScheduler(t *testing.T) {
	var runs atomic.Int32
	a := auditorFunc(func(context.Context) (map[string]error, error) {
		runs.Add(1)
		return nil, nil
	})

	_, err := InitScheduler(a, "not a schedule", log.NewNop())
	assert.Error(t, err)

	c, err := InitScheduler(a, "* * * * * *", log.NewNop())
	require.NoError(t, err)
	defer c.Stop()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
