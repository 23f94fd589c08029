package queue

import (
	"context"
	"fmt"
	"strings"

	"waitline/internal/models"
)

func (e *Engine) CreateQueue(ctx context.Context, businessID, title string) (*models.Queue, error) {
	businessID = strings.TrimSpace(businessID)
	title = strings.TrimSpace(title)
	if businessID == "" {
		return nil, fmt.Errorf("%w: business id is required", ErrInvalidQueue)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidQueue)
	}

	q := &models.Queue{Title: title, BusinessID: businessID, CreatedAt: e.now()}
	if err := e.store.CreateQueue(ctx, q); err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}
	e.log.Infow("queue created", "queue_id", q.ID, "business_id", businessID)
	return q, nil
}

func (e *Engine) ListQueues(ctx context.Context, businessID string) ([]models.Queue, error) {
	queues, err := e.store.ListQueues(ctx, businessID)
	if err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}
	return queues, nil
}

// UserEntries lists every entry the user ever held, oldest first.
func (e *Engine) UserEntries(ctx context.Context, userID string) ([]models.QueueEntry, error) {
	entries, err := e.store.UserEntries(ctx, userID)
	if err != nil {
		return nil, translate(err, ErrNotInQueue)
	}
	return entries, nil
}

// WaitingLine returns the queue's waiting entries ordered by position.
func (e *Engine) WaitingLine(ctx context.Context, queueID string) ([]models.QueueEntry, error) {
	if _, err := e.store.GetQueue(ctx, queueID); err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}
	entries, err := e.store.WaitingEntries(ctx, queueID)
	if err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}
	return entries, nil
}
