// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

const checkTimeout = 5 * time.Second

const (
	StatusOK           = "ok"
	StatusDegraded     = "degraded"
	StatusUnavailable  = "unavailable"
	StatusNotReady     = "not_ready"
	StatusShuttingDown = "shutting_down"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is one backing service readiness depends on. An Optional
// dependency failing degrades the instance but keeps it in rotation; the
// advice cache and rate limiter both tolerate a missing redis.
type Dependency struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Handler struct {
	deps     []Dependency
	version  string
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(version string, deps ...Dependency) *Handler {
	h := &Handler{deps: deps, version: version}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable,
			StatusResponse{Status: StatusShuttingDown, Version: h.version})
		return
	}
	writeStatus(w, http.StatusOK, StatusResponse{Status: StatusOK, Version: h.version})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: StatusShuttingDown})
		return
	}
	if !h.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: StatusNotReady})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := h.runChecks(ctx)
	status := summarize(checks)

	code := http.StatusOK
	if status == StatusUnavailable {
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, ReadinessResponse{Status: status, Checks: checks})
}

// summarize is unavailable when a required dependency fails and degraded
// when only optional ones do.
func summarize(checks []Check) string {
	status := StatusOK
	for _, c := range checks {
		switch {
		case c.Healthy:
		case c.Optional:
			status = StatusDegraded
		default:
			return StatusUnavailable
		}
	}
	return status
}

func (h *Handler) runChecks(ctx context.Context) []Check {
	var wg sync.WaitGroup
	checks := make([]Check, len(h.deps))

	for i, dep := range h.deps {
		wg.Go(func() {
			checks[i] = probe(ctx, dep)
		})
	}

	wg.Wait()
	return checks
}

func probe(ctx context.Context, dep Dependency) Check {
	check := Check{Name: dep.Name, Optional: dep.Optional}
	if dep.Checker == nil {
		check.Message = "checker not configured"
		return check
	}

	start := time.Now()
	err := dep.Checker.Ping(ctx)
	check.Latency = time.Since(start).String()
	check.Healthy = err == nil
	if err != nil {
		check.Message = "ping failed"
	}
	return check
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	core.JSON(w, status, data)
}

type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ReadinessResponse struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks"`
}

type Check struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}
