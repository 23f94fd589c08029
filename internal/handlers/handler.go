package handlers

import (
	"context"

	"waitline/internal/log"
	"waitline/internal/queue"
)

// Events рассылает события очереди подписчикам (websocket hub).
type Events interface {
	BroadcastQueueEvent(ctx context.Context, queueID, eventType string, data interface{}) error
}

// Handler holds the HTTP endpoints of the queue engine.
type Handler struct {
	engine *queue.Engine
	events Events
	log    *log.Logger
}

func New(engine *queue.Engine, events Events, logger *log.Logger) *Handler {
	return &Handler{engine: engine, events: events, log: logger}
}

// broadcast is best effort, a lost event never fails the request.
func (h *Handler) broadcast(ctx context.Context, queueID, eventType string, data interface{}) {
	if h.events == nil {
		return
	}
	if err := h.events.BroadcastQueueEvent(ctx, queueID, eventType, data); err != nil {
		h.log.Debugw("queue event not broadcast", "queue_id", queueID, "event", eventType, "error", err)
	}
}

type queueURI struct {
	QueueID string `uri:"queue_id" binding:"required,max=64"`
}

type entryURI struct {
	QueueID string `uri:"queue_id" binding:"required,max=64"`
	UserID  string `uri:"user_id" binding:"required,max=64"`
}

type businessURI struct {
	BusinessID string `uri:"business_id" binding:"required,max=64"`
}

type userURI struct {
	UserID string `uri:"user_id" binding:"required,max=64"`
}
