package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TypeNotifyUser = "notify:user"

type NotifyUserPayload struct {
	UserID  string  `json:"user_id"`
	Message Message `json:"message"`
}

// TaskNotifier hands notifications to asynq, so delivery happens in a worker
// with its own retries instead of on the request path.
type TaskNotifier struct {
	client *asynq.Client
	opts   []asynq.Option
}

// NewTaskNotifier enqueues on the "critical" queue with three retries unless
// opts say otherwise.
func NewTaskNotifier(client *asynq.Client, opts ...asynq.Option) *TaskNotifier {
	if len(opts) == 0 {
		opts = []asynq.Option{asynq.Queue("critical"), asynq.MaxRetry(3)}
	}
	return &TaskNotifier{client: client, opts: opts}
}

func (n *TaskNotifier) Notify(ctx context.Context, userID string, msg Message) error {
	task, err := NewNotifyUserTask(userID, msg)
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task, n.opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeNotifyUser, err)
	}
	return nil
}

func NewNotifyUserTask(userID string, msg Message) (*asynq.Task, error) {
	payload, err := json.Marshal(NotifyUserPayload{UserID: userID, Message: msg})
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", TypeNotifyUser, err)
	}
	return asynq.NewTask(TypeNotifyUser, payload), nil
}

// HandleNotifyUser returns the worker-side handler that forwards each task to next.
func HandleNotifyUser(next Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyUserPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s: %v: %w", TypeNotifyUser, err, asynq.SkipRetry)
		}
		return next.Notify(ctx, payload.UserID, payload.Message)
	}
}

// NewServeMux registers the notification handler.
func NewServeMux(next Notifier) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeNotifyUser, HandleNotifyUser(next))
	return mux
}
