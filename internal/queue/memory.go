package queue

import (
	"context"
	"sync"

	"reelstudio/internal/pkg/errors"
)

// MemoryBroker keeps queues in process. It backs tests and single-process
// development; nothing survives a restart.
type MemoryBroker struct {
	mu         sync.Mutex
	queues     map[string]chan []byte
	capacity   int
	publishErr error
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryBroker creates a broker whose queues buffer up to capacity
// messages.
func NewMemoryBroker(capacity int) *MemoryBroker {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryBroker{
		queues:   make(map[string]chan []byte),
		capacity: capacity,
		done:     make(chan struct{}),
	}
}

func (b *MemoryBroker) queue(name string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[name]
	if !ok {
		q = make(chan []byte, b.capacity)
		b.queues[name] = q
	}
	return q
}

// FailPublish makes every later Publish fail with err. Pass nil to recover.
func (b *MemoryBroker) FailPublish(err error) {
	b.mu.Lock()
	b.publishErr = err
	b.mu.Unlock()
}

// Len reports how many messages wait on queue.
func (b *MemoryBroker) Len(queue string) int {
	return len(b.queue(queue))
}

func (b *MemoryBroker) isClosed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, queue string, payload any) error {
	if b.isClosed() {
		return errors.QueueUnavailable(queue, ErrClosed)
	}

	b.mu.Lock()
	failErr := b.publishErr
	b.mu.Unlock()
	if failErr != nil {
		return errors.QueueUnavailable(queue, failErr)
	}

	body, err := encode(queue, payload)
	if err != nil {
		return err
	}

	select {
	case b.queue(queue) <- body:
		return nil
	case <-ctx.Done():
		return errors.QueueUnavailable(queue, ctx.Err())
	case <-b.done:
		return errors.QueueUnavailable(queue, ErrClosed)
	}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, queue string) (Subscription, error) {
	if b.isClosed() {
		return nil, errors.QueueUnavailable(queue, ErrClosed)
	}
	return &memorySubscription{broker: b, name: queue, q: b.queue(queue), stop: make(chan struct{})}, nil
}

func (b *MemoryBroker) Ping(ctx context.Context) error {
	if b.isClosed() {
		return errors.Unavailable("memory broker")
	}
	return nil
}

func (b *MemoryBroker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

type memorySubscription struct {
	broker   *MemoryBroker
	name     string
	q        chan []byte
	stop     chan struct{}
	stopOnce sync.Once
}

func (s *memorySubscription) Next(ctx context.Context) (*Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stop:
		return nil, ErrClosed
	case <-s.broker.done:
		return nil, ErrClosed
	case body := <-s.q:
		return NewMessage(s.name, body, func(ack, requeue bool) error {
			if ack || !requeue {
				return nil
			}
			select {
			case s.q <- body:
				return nil
			case <-s.broker.done:
				return ErrClosed
			}
		}), nil
	}
}

func (s *memorySubscription) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
