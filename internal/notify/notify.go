package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// KindPositionThreshold is sent once when an entry reaches the notify position.
const KindPositionThreshold = "position_threshold"

// Message is what a user receives.
type Message struct {
	Kind     string    `json:"kind"`
	QueueID  string    `json:"queue_id"`
	EntryID  string    `json:"entry_id"`
	UserID   string    `json:"user_id"`
	Position int       `json:"position"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// ThresholdMessage builds the message for an entry that reached position.
func ThresholdMessage(queueID, entryID, userID string, position int, now time.Time) Message {
	return Message{
		Kind:     KindPositionThreshold,
		QueueID:  queueID,
		EntryID:  entryID,
		UserID:   userID,
		Position: position,
		Text:     fmt.Sprintf("You are number %d in line. Please get ready.", position),
		SentAt:   now,
	}
}

// Notifier delivers a message to a user. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID string, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, userID string, msg Message) error {
	return f(ctx, userID, msg)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string, Message) error { return nil }

// Fanout offers the message to every notifier. It succeeds when at least one
// of them accepted it and otherwise returns all their errors joined.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, userID string, msg Message) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, userID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) < len(f) {
		return nil
	}
	return errors.Join(errs...)
}
