package queue

import (
	"context"

	"waitline/internal/models"
)

// QueueSummary holds the counts for one queue.
type QueueSummary struct {
	QueueID      string `json:"queue_id"`
	Title        string `json:"title"`
	TotalUsers   int    `json:"total_users"`
	ServedUsers  int    `json:"served_users"`
	SkippedUsers int    `json:"skipped_users"`
	WaitingUsers int    `json:"waiting_users"`
}

// Summary is the business-wide view.
type Summary struct {
	BusinessID           string         `json:"business_id"`
	Queues               []QueueSummary `json:"queues"`
	TotalQueues          int            `json:"total_queues"`
	TotalUsers           int            `json:"total_users"`
	ServedUsers          int            `json:"served_users"`
	SkippedUsers         int            `json:"skipped_users"`
	WaitingUsers         int            `json:"waiting_users"`
	AverageUsersPerQueue float64        `json:"average_users_per_queue"`
}

// Analytics reads every queue of businessID without taking queue locks.
func (e *Engine) Analytics(ctx context.Context, businessID string) (*Summary, error) {
	queues, err := e.store.ListQueues(ctx, businessID)
	if err != nil {
		return nil, translate(err, ErrQueueNotFound)
	}

	s := &Summary{BusinessID: businessID, Queues: make([]QueueSummary, 0, len(queues))}
	for _, q := range queues {
		counts, err := e.store.CountByStatus(ctx, q.ID)
		if err != nil {
			return nil, translate(err, ErrQueueNotFound)
		}
		qs := QueueSummary{
			QueueID:      q.ID,
			Title:        q.Title,
			TotalUsers:   counts.Total(),
			ServedUsers:  counts[models.StatusServed],
			SkippedUsers: counts[models.StatusSkipped],
		}
		qs.WaitingUsers = qs.TotalUsers - qs.ServedUsers - qs.SkippedUsers

		s.Queues = append(s.Queues, qs)
		s.TotalUsers += qs.TotalUsers
		s.ServedUsers += qs.ServedUsers
		s.SkippedUsers += qs.SkippedUsers
		s.WaitingUsers += qs.WaitingUsers
	}

	s.TotalQueues = len(queues)
	if s.TotalQueues > 0 {
		s.AverageUsersPerQueue = float64(s.TotalUsers) / float64(s.TotalQueues)
	}
	return s, nil
}
