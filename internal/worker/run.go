// Package worker consumes render jobs from the queue and hands them to the
// processor one at a time.
package worker

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/queue"
	"reelstudio/internal/worker/processor"
	"reelstudio/internal/worker/renderer"
)

// Run subscribes to the render queue and processes jobs until ctx is
// cancelled or the subscription closes. A failed subscribe is returned
// to the caller, which treats it as fatal.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	if d.Queue == "" {
		d.Queue = renderv1.QueueName
	}

	sub, err := d.Broker.Subscribe(ctx, d.Queue)
	if err != nil {
		if !errors.IsQueueUnavailable(err) {
			err = errors.QueueUnavailable(d.Queue, err)
		}
		return err
	}
	defer sub.Close()

	engine := renderer.NewEngine(renderer.Options{
		Bin:              d.Render.Bin,
		Args:             d.Render.Args,
		ThumbnailBin:     d.Render.ThumbnailBin,
		Timeout:          d.Render.Timeout,
		ThumbnailTimeout: d.Render.ThumbnailTimeout,
	}, d.Runner)

	p := processor.New(processor.Deps{
		Store:      d.Store,
		Renderer:   engine,
		SP:         d.SP,
		ScratchDir: d.Render.ScratchDir,
		FPS:        d.Render.FPS,
		Log:        log,
	})

	gate := NewGate(d.Render.BusyPolicy, d.Render.RequeueDelay)
	handle := jobHandler(p, gate, log)

	receivers := d.Receivers
	if receivers <= 0 {
		receivers = 1
	}

	log.Info("worker started",
		"queue", d.Queue,
		"receivers", receivers,
		"busy_policy", string(gate.policy),
	)

	var wg sync.WaitGroup
	errs := make(chan error, receivers)
	for range receivers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- queue.Consume(ctx, sub, log, handle)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !stderrors.Is(err, context.Canceled) {
			return err
		}
	}
	log.Info("worker stopped")
	return nil
}

// jobHandler waits for the render slot with the receive context, then runs
// the job detached from it so a shutdown lets the current render finish.
func jobHandler(p *processor.Processor, gate *Gate, log *logger.Logger) queue.Handler[renderv1.RenderJob] {
	return func(ctx context.Context, job renderv1.RenderJob) error {
		if err := gate.Acquire(ctx); err != nil {
			log.Debug("render slot busy, requeueing", "video_id", job.VideoID)
			return err
		}
		defer gate.Release()

		jobCtx := logger.ContextWithVideoID(context.WithoutCancel(ctx), job.VideoID)
		jobLog := log.WithVideoID(job.VideoID)

		jobLog.Info("processing job")
		start := time.Now()

		if err := p.Handle(jobCtx, job); err != nil {
			jobLog.Error("job failed",
				"error", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}

		jobLog.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
		return nil
	}
}
