package queue

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"reelstudio/internal/pkg/errors"
)

const (
	DriverAMQP   = "amqp"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a broker.
type Options struct {
	Driver        string
	AMQPURL       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefetch      int
	// Queues are declared up front where the transport supports it.
	Queues []string
}

// Open connects the broker named by opts.Driver. Connection failures are
// returned as QueueUnavailable.
func Open(ctx context.Context, opts Options) (Broker, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverAMQP, "":
		b, err := DialAMQP(opts.AMQPURL, opts.Prefetch, opts.Queues...)
		if err != nil {
			return nil, err
		}
		return b, nil

	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, errors.QueueUnavailable(strings.Join(opts.Queues, ","), err)
		}
		return NewRedisBroker(rdb, DefaultPollTimeout), nil

	case DriverMemory:
		return NewMemoryBroker(0), nil

	default:
		return nil, errors.ValidationField("QUEUE_DRIVER", "unknown queue driver "+opts.Driver)
	}
}
