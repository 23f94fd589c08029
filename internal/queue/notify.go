package queue

import (
	"context"
	"fmt"
	"time"

	"waitline/internal/models"
	"waitline/internal/notify"
)

// notifyTimeout bounds one delivery attempt on the caller's path.
const notifyTimeout = 5 * time.Second

// notifyIfAtThreshold runs after commit and outside the queue lock. Delivery
// problems are logged and never reach the caller.
func (e *Engine) notifyIfAtThreshold(ctx context.Context, entry *models.QueueEntry) {
	if entry == nil || !entry.Waiting() || entry.Position != e.threshold {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	fields := []interface{}{"queue_id", entry.QueueID, "user_id", entry.UserID, "entry_id", entry.ID}
	first, err := e.marker.Claim(ctx, entry.ID, e.threshold)
	if err != nil {
		e.log.Warnw("skipping notification", append(fields, "error", fmt.Errorf("%w: %w", ErrNotifyFailed, err))...)
		return
	}
	if !first {
		return
	}

	msg := notify.ThresholdMessage(entry.QueueID, entry.ID, entry.UserID, entry.Position, e.now())
	if err := e.notifier.Notify(ctx, entry.UserID, msg); err != nil {
		e.log.Warnw("notification not delivered", append(fields, "error", fmt.Errorf("%w: %w", ErrNotifyFailed, err))...)
		return
	}
	e.log.Infow("threshold notification sent", append(fields, "position", entry.Position)...)
}
