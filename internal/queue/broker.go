// Package queue is the durable job transport between the API and the render
// workers. A Broker publishes JSON payloads and hands out Subscriptions whose
// messages are acknowledged explicitly by the consumer.
package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"reelstudio/internal/pkg/errors"
)

var (
	// ErrRetryLater asks the consume loop to nack the message with requeue.
	ErrRetryLater = stderrors.New("queue: retry later")
	// ErrClosed is returned by Next once the subscription or broker is closed.
	ErrClosed = stderrors.New("queue: closed")
)

// Broker is implemented by the AMQP, Redis and in-memory transports.
type Broker interface {
	Publish(ctx context.Context, queue string, payload any) error
	Subscribe(ctx context.Context, queue string) (Subscription, error)
	Ping(ctx context.Context) error
	Close() error
}

// Subscription delivers messages from one queue.
type Subscription interface {
	// Next blocks until a message is available, ctx is done or the
	// subscription is closed.
	Next(ctx context.Context) (*Message, error)
	Close() error
}

// Message is one delivery. Exactly one of Ack or Nack takes effect.
type Message struct {
	Queue string
	Body  []byte

	once    sync.Once
	settle  func(ack, requeue bool) error
	settled error
}

// NewMessage builds a delivery whose acknowledgement is handled by settle.
func NewMessage(queue string, body []byte, settle func(ack, requeue bool) error) *Message {
	return &Message{Queue: queue, Body: body, settle: settle}
}

// Ack confirms the message was handled.
func (m *Message) Ack() error {
	return m.finish(true, false)
}

// Nack rejects the message. With requeue the broker redelivers it later,
// otherwise it is dropped.
func (m *Message) Nack(requeue bool) error {
	return m.finish(false, requeue)
}

func (m *Message) finish(ack, requeue bool) error {
	m.once.Do(func() {
		if m.settle != nil {
			m.settled = m.settle(ack, requeue)
		}
	})
	return m.settled
}

func encode(queue string, payload any) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "queue.publish", "encode payload for "+queue)
	}
	return body, nil
}
