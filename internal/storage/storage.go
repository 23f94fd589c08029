package storage

import (
	"context"
	"errors"

	"waitline/internal/models"
)

var (
	// ErrNotFound is returned when a queue or entry lookup matches nothing.
	ErrNotFound = errors.New("storage: record not found")
	// ErrDuplicate is returned when an insert violates the one-waiting-entry-per-user index.
	ErrDuplicate = errors.New("storage: duplicate waiting entry")
	// ErrConflict is returned by a conditional update whose precondition no longer holds.
	ErrConflict = errors.New("storage: conditional update did not match")
)

// StatusCounts maps every status to the number of entries holding it.
type StatusCounts map[models.Status]int

// Total sums the counts over all statuses.
func (c StatusCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Store is the record store behind the queue engine.
//
// Reads outside WithinQueue observe committed state only. Every mutation of
// queue entries happens inside WithinQueue.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	CreateQueue(ctx context.Context, q *models.Queue) error
	GetQueue(ctx context.Context, queueID string) (*models.Queue, error)
	ListQueues(ctx context.Context, businessID string) ([]models.Queue, error)
	AllQueues(ctx context.Context) ([]models.Queue, error)

	// LatestEntry returns the most recently joined entry of userID in queueID.
	LatestEntry(ctx context.Context, queueID, userID string) (*models.QueueEntry, error)
	// WaitingEntries returns the waiting entries of a queue ordered by position.
	WaitingEntries(ctx context.Context, queueID string) ([]models.QueueEntry, error)
	UserEntries(ctx context.Context, userID string) ([]models.QueueEntry, error)
	CountByStatus(ctx context.Context, queueID string) (StatusCounts, error)

	// WithinQueue runs fn in a transaction that is serialized against every
	// other WithinQueue call for the same queue. It returns ErrNotFound when
	// the queue does not exist. Changes made through tx become visible to
	// readers all at once when fn returns nil and are discarded otherwise.
	WithinQueue(ctx context.Context, queueID string, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside WithinQueue. All methods are
// scoped to the queue the transaction was opened for.
type Tx interface {
	LatestEntry(userID string) (*models.QueueEntry, error)
	CountWaiting() (int, error)
	// WaitingAt returns the waiting entry at position, or ErrNotFound.
	WaitingAt(position int) (*models.QueueEntry, error)
	InsertEntry(e *models.QueueEntry) error
	// SetStatus moves entryID from status from to status to, failing with
	// ErrConflict when the entry is no longer in from.
	SetStatus(entryID string, from, to models.Status) error
	// CloseGap decrements by one the position of every waiting entry above
	// vacated, provided no waiting entry currently occupies vacated. It
	// returns the number of entries shifted.
	CloseGap(vacated int) (int, error)
}
