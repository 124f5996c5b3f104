package worker

import (
	"reelstudio/internal/config"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/ports"
	"reelstudio/internal/queue"
	"reelstudio/internal/worker/processor"
	"reelstudio/internal/worker/renderer"
)

type Deps struct {
	Broker queue.Broker
	Queue  string
	Store  processor.Store
	SP     ports.StorageProvider
	Render config.RenderConfig

	// Receivers is the number of concurrent receive loops. They share one
	// Gate, so at most one render runs at a time.
	Receivers int

	Log *logger.Logger

	// Runner defaults to renderer.Exec.
	Runner renderer.Runner
}
