package queue

import (
	"context"
	"fmt"

	"waitline/internal/models"
)

// Audit checks that the waiting positions of queueID are exactly 1..N in join
// order. It reports the first violation as ErrPositionGap.
func (e *Engine) Audit(ctx context.Context, queueID string) error {
	if _, err := e.store.GetQueue(ctx, queueID); err != nil {
		return translate(err, ErrQueueNotFound)
	}
	entries, err := e.store.WaitingEntries(ctx, queueID)
	if err != nil {
		return translate(err, ErrQueueNotFound)
	}
	return checkContiguous(entries)
}

// AuditAll audits every queue and returns the failures keyed by queue id.
// Healthy queues are absent from the map.
func (e *Engine) AuditAll(ctx context.Context) (map[string]error, error) {
	queues, err := e.store.AllQueues(ctx)
	if err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}
	failures := make(map[string]error)
	for _, q := range queues {
		if err := e.Audit(ctx, q.ID); err != nil {
			failures[q.ID] = err
		}
	}
	return failures, nil
}

// entries must be sorted by position.
func checkContiguous(entries []models.QueueEntry) error {
	for i, en := range entries {
		if en.Position != i+1 {
			return fmt.Errorf("%w: entry %s holds position %d, expected %d", ErrPositionGap, en.ID, en.Position, i+1)
		}
		if i > 0 && en.JoinedAt.Before(entries[i-1].JoinedAt) {
			return fmt.Errorf("%w: entry %s at position %d joined before entry %s", ErrPositionGap, en.ID, en.Position, entries[i-1].ID)
		}
	}
	return nil
}
