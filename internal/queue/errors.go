package queue

import "errors"

var (
	ErrQueueNotFound     = errors.New("queue not found")
	ErrAlreadyJoined     = errors.New("user is already waiting in this queue")
	ErrEntryNotFound     = errors.New("queue entry not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotInQueue        = errors.New("user is not in this queue")
	// ErrStoreUnavailable wraps record store failures. Callers may retry.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrNotifyFailed is only ever logged.
	ErrNotifyFailed = errors.New("notification failed")
	ErrPositionGap  = errors.New("waiting positions are not contiguous")
	ErrInvalidQueue = errors.New("invalid queue")
	// ErrInvalidPosition is returned for a vacated position below 1.
	ErrInvalidPosition = errors.New("position must be at least 1")
)

var domainErrors = []error{
	ErrQueueNotFound,
	ErrAlreadyJoined,
	ErrEntryNotFound,
	ErrInvalidTransition,
	ErrNotInQueue,
	ErrInvalidQueue,
	ErrInvalidPosition,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
