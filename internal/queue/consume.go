package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"reelstudio/internal/pkg/logger"
)

// receiveBackoff is the pause after a transient receive error.
var receiveBackoff = time.Second

// Handler processes one decoded message.
type Handler[T any] func(ctx context.Context, msg T) error

// Consume runs the receive loop for sub until ctx is cancelled or the
// subscription is closed. The handler result decides the acknowledgement:
// nil acks, ErrRetryLater nacks with requeue, anything else nacks without
// requeue. Bodies that do not decode into T are nacked and dropped.
func Consume[T any](ctx context.Context, sub Subscription, log *logger.Logger, handle Handler[T]) error {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if stderrors.Is(err, ErrClosed) {
				log.Info("subscription closed, stopping receive loop")
				return nil
			}

			log.Warn("queue receive error, retrying", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveBackoff):
			}
			continue
		}

		Dispatch(ctx, msg, log, handle)
	}
}

// Dispatch decodes a single message, runs handle and settles the message.
func Dispatch[T any](ctx context.Context, msg *Message, log *logger.Logger, handle Handler[T]) {
	var body T
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		log.Error("dropping undecodable message",
			"queue", msg.Queue,
			"error", err.Error(),
			"bytes", len(msg.Body),
		)
		settle(log, msg, msg.Nack(false))
		return
	}

	err := handle(ctx, body)
	switch {
	case err == nil:
		settle(log, msg, msg.Ack())
	case stderrors.Is(err, ErrRetryLater):
		log.Debug("message requeued", "queue", msg.Queue)
		settle(log, msg, msg.Nack(true))
	default:
		settle(log, msg, msg.Nack(false))
	}
}

func settle(log *logger.Logger, msg *Message, err error) {
	if err != nil {
		log.Warn("message acknowledgement failed", "queue", msg.Queue, "error", err.Error())
	}
}
