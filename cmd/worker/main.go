package main

import (
	"context"
	"time"

	"reelstudio/internal/config"
	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/pkg/shutdown"
	"reelstudio/internal/queue"
	"reelstudio/internal/repositories"
	"reelstudio/internal/storage"
	"reelstudio/internal/worker"
)

func main() {
	logCfg := logger.DefaultConfig()
	logCfg.ServiceName = "reelstudio-worker"
	log := logger.New(logCfg)

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		log.LogFatal("invalid configuration", err)
	}

	queueName := cfg.Queue.Name
	if queueName == "" {
		queueName = renderv1.QueueName
	}

	log.Info("starting reelstudio worker",
		"queue", queueName,
		"render_bin", cfg.Render.Bin,
		"busy_policy", string(cfg.Render.BusyPolicy),
	)

	ctx := context.Background()

	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		log.LogFatal("failed to connect to database", err)
	}

	broker, err := queue.Open(ctx, queue.Options{
		Driver:        cfg.Queue.Driver,
		AMQPURL:       cfg.Queue.AMQPURL,
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		Prefetch:      cfg.Queue.Prefetch,
		Queues:        []string{queueName},
	})
	if err != nil {
		log.LogFatal("failed to connect to queue", err)
	}

	if rb, ok := broker.(*queue.RedisBroker); ok {
		n, err := rb.RecoverInflight(ctx, queueName)
		if err != nil {
			log.LogFatal("failed to recover in-flight jobs", err)
		}
		if n > 0 {
			log.Warn("requeued jobs left in flight by a previous worker", "count", n)
		}
	}

	sp, err := storage.NewProvider(ctx, cfg.Storage, cfg.HTTP.PublicBaseURL)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	shutdownMgr := shutdown.NewManager(log, cfg.Render.Timeout+30*time.Second)
	shutdownMgr.Register("database", func(ctx context.Context) error {
		return store.Close()
	})
	shutdownMgr.Register("queue", func(ctx context.Context) error {
		return broker.Close()
	})

	// Registered last so it runs first: the in-flight render finishes
	// before the connections above are closed.
	runDone := make(chan struct{})
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		select {
		case <-runDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() {
		err := worker.Run(shutdownMgr.Context(), worker.Deps{
			Broker:    broker,
			Queue:     queueName,
			Store:     store,
			SP:        sp,
			Render:    cfg.Render,
			Receivers: cfg.Queue.Prefetch,
			Log:       log,
		})
		close(runDone)
		if err != nil {
			log.LogFatal("worker stopped", err)
		}
		shutdownMgr.Shutdown()
	}()

	shutdownMgr.Wait()
}
