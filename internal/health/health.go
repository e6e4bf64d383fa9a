// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// ErrUnhealthy is what boolean probes report when they fail.
var ErrUnhealthy = errors.New("packbot/health: unhealthy")

// Check reports a dependency's health. A nil error means healthy.
type Check func(ctx context.Context) error

// FromBool adapts a boolean probe such as (*sender.Client).Healthy.
func FromBool(probe func() bool) Check {
	return func(context.Context) error {
		if probe() {
			return nil
		}
		return ErrUnhealthy
	}
}

type namedCheck struct {
	name  string
	check Check
}

// Handler aggregates readiness checks.
type Handler struct {
	ready   atomic.Bool
	checks  []namedCheck
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithCheck adds a named readiness check.
func WithCheck(name string, check Check) Option {
	return func(h *Handler) {
		h.checks = append(h.checks, namedCheck{name: name, check: check})
	}
}

// WithTimeout overrides DefaultCheckTimeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New creates a handler. It reports not ready until SetReady(true).
func New(opts ...Option) *Handler {
	h := &Handler{
		timeout: DefaultCheckTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetReady marks the service as ready.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Report is the readiness response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Evaluate runs all checks concurrently.
func (h *Handler) Evaluate(ctx context.Context) (Report, bool) {
	if !h.ready.Load() {
		return Report{Status: "starting"}, false
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		results = make(map[string]string, len(h.checks))
	)
	for _, c := range h.checks {
		wg.Go(func() {
			err := c.check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				healthy = false
				results[c.name] = err.Error()
				return
			}
			results[c.name] = "ok"
		})
	}
	wg.Wait()

	if !healthy {
		return Report{Status: "unavailable", Checks: results}, false
	}
	return Report{Status: "ok", Checks: results}, true
}

// LivenessHandler returns the liveness probe handler.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns the readiness probe handler.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := h.Evaluate(r.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
			h.logger.Warn("readiness check failed", "status", report.Status, "checks", report.Checks)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			h.logger.Debug("write readiness report failed", "error", err)
		}
	}
}

// Routes mounts /healthz and /readyz.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", h.LivenessHandler())
	r.Get("/readyz", h.ReadinessHandler())
	return r
}

// Server returns an HTTP server for the probes.
func (h *Handler) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
