package queue

import (
	"context"
	"errors"
	"fmt"

	"waitline/internal/models"
	"waitline/internal/storage"
)

// Standing is where a user's latest entry stands.
type Standing struct {
	EntryID  string        `json:"entry_id"`
	QueueID  string        `json:"queue_id"`
	UserID   string        `json:"user_id"`
	Status   models.Status `json:"status"`
	Position int           `json:"position"`
}

func standingOf(e *models.QueueEntry) Standing {
	return Standing{
		EntryID:  e.ID,
		QueueID:  e.QueueID,
		UserID:   e.UserID,
		Status:   e.Status,
		Position: e.Position,
	}
}

// Join puts userID at the end of the queue's waiting sequence.
func (e *Engine) Join(ctx context.Context, queueID, userID string) (*models.QueueEntry, error) {
	var entry *models.QueueEntry
	err := e.mutate(ctx, queueID, func(tx storage.Tx) error {
		cur, err := tx.LatestEntry(userID)
		switch {
		case err == nil && cur.Waiting():
			return ErrAlreadyJoined
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return err
		}

		waiting, err := tx.CountWaiting()
		if err != nil {
			return err
		}
		entry = &models.QueueEntry{
			QueueID:  queueID,
			UserID:   userID,
			Position: waiting + 1,
			Status:   models.StatusWaiting,
			JoinedAt: e.now(),
		}
		return tx.InsertEntry(entry)
	})
	if err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}

	e.log.Debugw("user joined", "queue_id", queueID, "user_id", userID, "position", entry.Position)
	e.notifyIfAtThreshold(ctx, entry)
	return entry, nil
}

// Renumber closes the gap left at vacated and returns how many waiting
// entries moved up. Calling it again for the same gap shifts nothing.
func (e *Engine) Renumber(ctx context.Context, queueID string, vacated int) (int, error) {
	if vacated < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, vacated)
	}
	var (
		shifted  int
		promoted *models.QueueEntry
	)
	err := e.mutate(ctx, queueID, func(tx storage.Tx) error {
		var err error
		shifted, promoted, err = e.closeGap(tx, vacated)
		return err
	})
	if err != nil {
		return 0, translate(err, ErrQueueNotFound)
	}
	e.notifyIfAtThreshold(ctx, promoted)
	return shifted, nil
}

// closeGap shifts the entries above vacated and returns the entry that moved
// onto the notify threshold, if any.
func (e *Engine) closeGap(tx storage.Tx, vacated int) (int, *models.QueueEntry, error) {
	shifted, err := tx.CloseGap(vacated)
	if err != nil {
		return 0, nil, err
	}
	if shifted == 0 || vacated > e.threshold {
		return shifted, nil, nil
	}
	// Everything above vacated moved down by one, so whoever sits on the
	// threshold now got there through this shift.
	promoted, err := tx.WaitingAt(e.threshold)
	if errors.Is(err, storage.ErrNotFound) {
		return shifted, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return shifted, promoted, nil
}

// PositionOf reports the user's latest entry together with its status, so
// callers can tell a waiting user from one already served or skipped.
func (e *Engine) PositionOf(ctx context.Context, queueID, userID string) (Standing, error) {
	entry, err := e.store.LatestEntry(ctx, queueID, userID)
	if err != nil {
		return Standing{}, translate(err, ErrNotInQueue)
	}
	return standingOf(entry), nil
}
