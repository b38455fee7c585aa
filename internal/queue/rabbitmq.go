package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/idhub/backend/internal/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNacked is returned when the broker refuses to take ownership of a message.
var ErrNacked = errors.New("message nacked by broker")

// RabbitPublisher publishes to a durable queue through the default exchange,
// with publisher confirms enabled so a successful publish means the broker has
// taken the message.
type RabbitPublisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher dials the broker and declares the queue.
func NewRabbitPublisher(url, queueName string) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, queue: queueName}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}

	logger.Info("RabbitMQ publisher ready", map[string]interface{}{
		"queue": queueName,
	})
	return p, nil
}

// connect (re)opens the connection and confirm-mode channel. Callers hold mu.
func (p *RabbitPublisher) connect() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		p.conn = conn
		p.ch = nil
	}

	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
		}
		if err := ch.Confirm(false); err != nil {
			ch.Close()
			return fmt.Errorf("failed to enable publisher confirms: %w", err)
		}
		// durable, non-exclusive, no auto-delete
		if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
			ch.Close()
			return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
		}
		p.ch = ch
	}

	return nil
}

func (p *RabbitPublisher) PublishAnalysis(ctx context.Context, msg AnalysisMessage) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return err
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.queue, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for broker confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("publish to %s: %w", p.queue, ErrNacked)
	}

	logger.Debug("Analysis message published", map[string]interface{}{
		"queue":              p.queue,
		"analysis_result_id": msg.AnalysisResultID,
	})
	return nil
}

// Ping reports whether the broker connection is usable, reconnecting if needed.
func (p *RabbitPublisher) Ping(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connect()
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
