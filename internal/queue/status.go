package queue

import (
	"context"
	"errors"
	"fmt"

	"waitline/internal/models"
	"waitline/internal/storage"
)

// ChangeStatus moves the user's latest entry to status to. Leaving the
// waiting state closes the gap behind the entry in the same transaction.
func (e *Engine) ChangeStatus(ctx context.Context, queueID, userID string, to models.Status) (*models.QueueEntry, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	var (
		entry    *models.QueueEntry
		promoted *models.QueueEntry
	)
	err := e.mutate(ctx, queueID, func(tx storage.Tx) error {
		cur, err := tx.LatestEntry(userID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if !models.CanTransition(cur.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
		}

		vacated := cur.Position
		if err := tx.SetStatus(cur.ID, cur.Status, to); err != nil {
			return err
		}
		cur.Status = to
		entry = cur

		if to.Terminal() {
			_, promoted, err = e.closeGap(tx, vacated)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, ErrEntryNotFound)
	}

	e.log.Infow("entry status changed", "queue_id", queueID, "user_id", userID, "status", to, "position", entry.Position)
	e.notifyIfAtThreshold(ctx, promoted)
	return entry, nil
}

// Leave removes a user from the line. The entry ends up skipped, exactly as
// if an administrator had skipped it.
func (e *Engine) Leave(ctx context.Context, queueID, userID string) (*models.QueueEntry, error) {
	return e.ChangeStatus(ctx, queueID, userID, models.StatusSkipped)
}

// CheckStatus is PositionOf for callers that treat a missing entry as an
// unknown record rather than as "not in line".
func (e *Engine) CheckStatus(ctx context.Context, queueID, userID string) (Standing, error) {
	entry, err := e.store.LatestEntry(ctx, queueID, userID)
	if err != nil {
		return Standing{}, translate(err, ErrEntryNotFound)
	}
	return standingOf(entry), nil
}
