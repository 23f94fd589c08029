// Package queue is the position engine: it assigns places in line, keeps the
// waiting sequence contiguous, drives the entry status lifecycle and reports
// per-business analytics.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waitline/internal/log"
	"waitline/internal/notify"
	"waitline/internal/storage"
)

// DefaultThreshold is the position at which a user is told to get ready.
const DefaultThreshold = 5

// Engine is safe for concurrent use. Position-mutating operations on the same
// queue are serialized, operations on different queues run in parallel.
type Engine struct {
	store     storage.Store
	notifier  notify.Notifier
	marker    notify.Marker
	threshold int
	locks     *keyedMutex
	log       *log.Logger
	now       func() time.Time
}

type Option func(*Engine)

func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMarker sets where threshold notifications are deduplicated. Use a
// shared marker when several processes serve the same queues.
func WithMarker(m notify.Marker) Option {
	return func(e *Engine) { e.marker = m }
}

func WithThreshold(position int) Option {
	return func(e *Engine) {
		if position > 0 {
			e.threshold = position
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		notifier:  notify.Nop{},
		marker:    notify.NewMemoryMarker(),
		threshold: DefaultThreshold,
		locks:     newKeyedMutex(),
		log:       log.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the notify position in use.
func (e *Engine) Threshold() int { return e.threshold }

// mutate runs fn inside the queue's critical section: the in-process lock
// first, then the store transaction.
func (e *Engine) mutate(ctx context.Context, queueID string, fn func(tx storage.Tx) error) error {
	unlock := e.locks.Lock(queueID)
	defer unlock()
	return e.store.WithinQueue(ctx, queueID, fn)
}

// translate maps a store error onto the engine taxonomy. missing is what a
// storage.ErrNotFound means for the calling operation.
func translate(err, missing error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return missing
	case errors.Is(err, storage.ErrDuplicate):
		return ErrAlreadyJoined
	case errors.Is(err, storage.ErrConflict):
		return ErrInvalidTransition
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
