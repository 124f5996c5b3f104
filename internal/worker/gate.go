package worker

import (
	"context"
	"time"

	"reelstudio/internal/config"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/queue"
)

// Gate is the single render slot of a worker process. A message that
// arrives while the slot is taken is either held until the slot frees up
// (BusyWait) or handed back to the broker after a delay (BusyRequeue).
// It is never dropped.
type Gate struct {
	slot   chan struct{}
	policy config.BusyPolicy
	delay  time.Duration
}

func NewGate(policy config.BusyPolicy, delay time.Duration) *Gate {
	if policy == "" {
		policy = config.BusyWait
	}
	return &Gate{slot: make(chan struct{}, 1), policy: policy, delay: delay}
}

// Acquire takes the slot. Whenever it gives up, the returned error wraps
// queue.ErrRetryLater so the message is requeued.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	default:
	}

	if g.policy == config.BusyRequeue {
		if g.delay > 0 {
			t := time.NewTimer(g.delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
			}
		}
		return errors.WrapWithCode(queue.ErrRetryLater, errors.CodeUnavailable, "worker.gate", "render slot busy")
	}

	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.WrapWithCode(queue.ErrRetryLater, errors.CodeUnavailable, "worker.gate", "stopped while waiting for render slot")
	}
}

func (g *Gate) Release() {
	select {
	case <-g.slot:
	default:
	}
}

// Busy reports whether a render holds the slot.
func (g *Gate) Busy() bool {
	return len(g.slot) == 1
}
