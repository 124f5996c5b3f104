package queue

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"reelstudio/internal/pkg/errors"
)

// AMQPBroker publishes and consumes over a single RabbitMQ channel.
type AMQPBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// DialAMQP connects to url, limits unacknowledged deliveries to prefetch and
// declares every queue as durable.
func DialAMQP(url string, prefetch int, queues ...string) (*AMQPBroker, error) {
	target := strings.Join(queues, ",")

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.QueueUnavailable(target, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.QueueUnavailable(target, err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = conn.Close()
			return nil, errors.QueueUnavailable(target, err)
		}
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, errors.QueueUnavailable(q, err)
		}
	}

	return &AMQPBroker{conn: conn, ch: ch}, nil
}

func (b *AMQPBroker) available() bool {
	return !b.closed.Load() && !b.conn.IsClosed()
}

// Publish sends payload as a persistent JSON message on the default exchange.
func (b *AMQPBroker) Publish(ctx context.Context, queue string, payload any) error {
	if !b.available() {
		return errors.QueueUnavailable(queue, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return errors.QueueUnavailable(queue, err)
	}

	body, err := encode(queue, payload)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return errors.QueueUnavailable(queue, err)
	}
	return nil
}

// Subscribe starts a manual-ack consumer on queue.
func (b *AMQPBroker) Subscribe(ctx context.Context, queue string) (Subscription, error) {
	if !b.available() {
		return nil, errors.QueueUnavailable(queue, ErrClosed)
	}

	tag := "reelstudio-" + uuid.NewString()
	deliveries, err := b.ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		return nil, errors.QueueUnavailable(queue, err)
	}

	return &amqpSubscription{queue: queue, tag: tag, ch: b.ch, deliveries: deliveries}, nil
}

// Ping fails once the connection is gone.
func (b *AMQPBroker) Ping(ctx context.Context) error {
	if !b.available() {
		return errors.Unavailable("amqp")
	}
	return nil
}

// Close shuts the channel and the connection. It is safe to call twice.
func (b *AMQPBroker) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		if err := b.ch.Close(); err != nil && err != amqp.ErrClosed {
			b.closeErr = err
		}
		if err := b.conn.Close(); err != nil && err != amqp.ErrClosed && b.closeErr == nil {
			b.closeErr = err
		}
	})
	return b.closeErr
}

type amqpSubscription struct {
	queue      string
	tag        string
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func (s *amqpSubscription) Next(ctx context.Context) (*Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return nil, ErrClosed
		}
		return NewMessage(s.queue, d.Body, func(ack, requeue bool) error {
			if ack {
				return d.Ack(false)
			}
			return d.Nack(false, requeue)
		}), nil
	}
}

func (s *amqpSubscription) Close() error {
	err := s.ch.Cancel(s.tag, false)
	if err == amqp.ErrClosed {
		return nil
	}
	return err
}
