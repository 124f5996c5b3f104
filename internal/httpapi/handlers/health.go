package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"reelstudio/internal/httpkit"
)

const pingTimeout = 5 * time.Second

type healthCheck struct {
	Status    string `json:"status"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS *int64 `json:"latency_ms,omitempty"`
}

type healthReport struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Checks  map[string]healthCheck `json:"checks,omitempty"`
}

// Health reports liveness. With ?deep=true it also pings the store and the
// broker and reports the storage provider; any failed check answers
// "degraded" with status 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok", Service: "reelstudio-api"}

	if r.URL.Query().Get("deep") == "true" {
		report.Checks = h.deepChecks(r.Context())
		for _, c := range report.Checks {
			if c.Status != "ok" {
				report.Status = "degraded"
			}
		}
		if report.Status != "ok" {
			h.log.FromContext(r.Context()).Warn("health check degraded", "checks", report.Checks)
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, report)
}

// deepChecks pings the dependencies concurrently.
func (h *Handler) deepChecks(ctx context.Context) map[string]healthCheck {
	checks := map[string]healthCheck{
		"storage": {Status: "ok", Provider: h.sp.Provider()},
	}
	pings := map[string]func(context.Context) error{}
	if h.store != nil {
		pings["database"] = h.store.Ping
	}
	if h.broker != nil {
		pings["queue"] = h.broker.Ping
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, fn := range pings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := ping(ctx, fn)
			mu.Lock()
			checks[name] = c
			mu.Unlock()
		}()
	}
	wg.Wait()
	return checks
}

func ping(ctx context.Context, fn func(context.Context) error) healthCheck {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	latency := time.Since(start).Milliseconds()

	c := healthCheck{Status: "ok", LatencyMS: &latency}
	if err != nil {
		c.Status = "error"
		c.Error = err.Error()
	}
	return c
}
