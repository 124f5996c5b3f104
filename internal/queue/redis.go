package queue

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"reelstudio/internal/pkg/errors"
)

// DefaultPollTimeout bounds each blocking receive against Redis.
const DefaultPollTimeout = 5 * time.Second

// RedisBroker is a reliable list queue. Published bodies are LPUSHed onto
// the queue key; a receive atomically moves the oldest body onto
// "<queue>:processing" where it stays until acknowledged.
type RedisBroker struct {
	rdb         *redis.Client
	pollTimeout time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewRedisBroker takes ownership of rdb.
func NewRedisBroker(rdb *redis.Client, pollTimeout time.Duration) *RedisBroker {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &RedisBroker{rdb: rdb, pollTimeout: pollTimeout}
}

// ProcessingKey is the list holding in-flight bodies of queue.
func ProcessingKey(queue string) string {
	return queue + ":processing"
}

func (b *RedisBroker) Publish(ctx context.Context, queue string, payload any) error {
	if b.closed.Load() {
		return errors.QueueUnavailable(queue, ErrClosed)
	}

	body, err := encode(queue, payload)
	if err != nil {
		return err
	}

	if err := b.rdb.LPush(ctx, queue, body).Err(); err != nil {
		return errors.QueueUnavailable(queue, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, queue string) (Subscription, error) {
	if b.closed.Load() {
		return nil, errors.QueueUnavailable(queue, ErrClosed)
	}
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.QueueUnavailable(queue, err)
	}
	return &redisSubscription{broker: b, queue: queue}, nil
}

// RecoverInflight moves bodies left on the processing list by a crashed
// consumer back to the head of queue. It returns how many were moved.
func (b *RedisBroker) RecoverInflight(ctx context.Context, queue string) (int, error) {
	moved := 0
	for {
		err := b.rdb.LMove(ctx, ProcessingKey(queue), queue, "RIGHT", "RIGHT").Err()
		if stderrors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, errors.QueueUnavailable(queue, err)
		}
		moved++
	}
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	if b.closed.Load() {
		return errors.Unavailable("redis")
	}
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "queue.ping", "redis unreachable")
	}
	return nil
}

func (b *RedisBroker) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.closeErr = b.rdb.Close()
	})
	return b.closeErr
}

type redisSubscription struct {
	broker *RedisBroker
	queue  string
	closed atomic.Bool
}

func (s *redisSubscription) Next(ctx context.Context) (*Message, error) {
	rdb := s.broker.rdb
	processing := ProcessingKey(s.queue)

	for {
		if s.closed.Load() || s.broker.closed.Load() {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := rdb.BLMove(ctx, s.queue, processing, "RIGHT", "LEFT", s.broker.pollTimeout).Result()
		if stderrors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.QueueUnavailable(s.queue, err)
		}

		return NewMessage(s.queue, []byte(body), func(ack, requeue bool) error {
			// Settling must survive a cancelled consumer context.
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := rdb.TxPipelined(sctx, func(p redis.Pipeliner) error {
				p.LRem(sctx, processing, 1, body)
				if !ack && requeue {
					p.LPush(sctx, s.queue, body)
				}
				return nil
			})
			return err
		}), nil
	}
}

func (s *redisSubscription) Close() error {
	s.closed.Store(true)
	return nil
}
