package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"waitline/internal/log"
)

const (
	defaultDialTimeout = 3 * time.Second
	defaultBackoff     = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher is backing off after
// a failed reconnect.
var ErrBrokerUnavailable = errors.New("amqp: broker unavailable")

// AMQPPublisher publishes notifications to a durable RabbitMQ queue for a
// downstream delivery worker (SMS, push, e-mail) to consume.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *log.Logger

	dialTimeout time.Duration
	backoff     time.Duration

	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
	retryAfter time.Time
}

// NewAMQPPublisher connects to the broker and declares the notification queue.
func NewAMQPPublisher(url, queue string, logger *log.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		url:         url,
		queue:       queue,
		logger:      logger,
		dialTimeout: defaultDialTimeout,
		backoff:     defaultBackoff,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect retries for a few seconds since the broker often starts after us.
// Only the constructor uses it; Notify reconnects with a single dial.
func (p *AMQPPublisher) connect() error {
	timeout := time.Now().Add(15 * time.Second)
	var err error
	for time.Now().Before(timeout) {
		if err = p.dial(p.dialTimeout); err == nil {
			return nil
		}
		time.Sleep(time.Second)
	}
	return err
}

// dial makes one connection attempt and opens a fresh channel on it.
func (p *AMQPPublisher) dial(timeout time.Duration) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	p.connection = conn
	return p.openChannel()
}

func (p *AMQPPublisher) openChannel() error {
	ch, err := p.connection.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err = ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}
	p.channel = ch
	return nil
}

// ensureConnection repairs a closed channel or connection with at most one
// dial, bounded by ctx. After a failure it refuses to dial again until the
// backoff has passed. Callers hold p.mu.
func (p *AMQPPublisher) ensureConnection(ctx context.Context) error {
	if p.connection != nil && !p.connection.IsClosed() {
		if p.channel != nil && !p.channel.IsClosed() {
			return nil
		}
		p.logger.Info("Reopening RabbitMQ channel...")
		return p.openChannel()
	}

	if now := time.Now(); now.Before(p.retryAfter) {
		return fmt.Errorf("%w: retry in %s", ErrBrokerUnavailable, p.retryAfter.Sub(now).Round(time.Millisecond))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := p.dialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	p.logger.Info("Reconnecting to RabbitMQ...")
	if err := p.dial(timeout); err != nil {
		backoff := p.backoff
		if backoff <= 0 {
			backoff = defaultBackoff
		}
		p.retryAfter = time.Now().Add(backoff)
		return err
	}
	p.retryAfter = time.Time{}
	return nil
}

func (p *AMQPPublisher) Notify(ctx context.Context, userID string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnection(ctx); err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.EntryID + ":" + msg.Kind,
		Timestamp:    msg.SentAt,
		Headers:      amqp.Table{"user_id": userID},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	p.logger.Debugw("notification published", "user_id", userID, "entry_id", msg.EntryID)
	return nil
}

// Close shuts the channel and connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.connection != nil {
		return p.connection.Close()
	}
	return nil
}
