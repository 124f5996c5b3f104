// Package shutdown coordinates graceful termination of the API and worker
// processes: connections and servers register cleanup handlers that run
// under one deadline when a signal arrives.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"reelstudio/internal/pkg/logger"
)

type Manager struct {
	log     *logger.Logger
	timeout time.Duration

	mu       sync.Mutex
	handlers []Handler

	once   sync.Once
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// Handler is a named cleanup step.
type Handler struct {
	Name    string
	Cleanup func(ctx context.Context) error
}

// NewManager creates a manager; a zero timeout means 30s.
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		log:     log,
		timeout: timeout,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Cleanup: cleanup})
	m.log.Debug("registered shutdown handler", "name", name)
}

// RegisterSimple adds a cleanup handler that cannot fail.
func (m *Manager) RegisterSimple(name string, cleanup func()) {
	m.Register(name, func(ctx context.Context) error {
		cleanup()
		return nil
	})
}

// Wait blocks until SIGINT/SIGTERM/SIGHUP or until Context is cancelled by
// a call to Shutdown, then runs cleanup.
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.log.Info("shutdown signal received", "signal", sig.String())
	case <-m.ctx.Done():
		m.log.Info("shutdown requested")
	}

	m.Shutdown()
	<-m.done
}

// Shutdown cancels Context and runs the handlers one at a time, newest
// first, so a server registered after its connections stops before they
// close. All handlers share the manager timeout. Later calls are no-ops.
func (m *Manager) Shutdown() {
	m.once.Do(m.run)
}

func (m *Manager) run() {
	defer close(m.done)
	m.cancel()

	m.mu.Lock()
	handlers := append([]Handler(nil), m.handlers...)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.log.Info("starting graceful shutdown", "handlers", len(handlers), "timeout", m.timeout.String())

	for i := len(handlers) - 1; i >= 0; i-- {
		if !m.runHandler(ctx, handlers[i]) {
			m.log.Warn("shutdown timeout exceeded, forcing exit", "pending", handlers[i].Name)
			return
		}
	}
	m.log.Info("graceful shutdown completed")
}

// runHandler reports false when ctx expired before h returned. h keeps
// running in the background in that case.
func (m *Manager) runHandler(ctx context.Context, h Handler) bool {
	start := time.Now()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Cleanup(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			m.log.Error("shutdown handler failed",
				"name", h.Name,
				"error", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		} else {
			m.log.Debug("shutdown handler completed", "name", h.Name, "duration_ms", time.Since(start).Milliseconds())
		}
		return true
	case <-ctx.Done():
		return false
	}
}

// Done is closed once every handler returned or the timeout hit.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Context is cancelled as soon as shutdown starts, so long-running loops
// (the worker receive loop) stop before their connections are closed.
func (m *Manager) Context() context.Context {
	return m.ctx
}
