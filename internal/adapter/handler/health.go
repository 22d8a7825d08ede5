package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthHandler handles liveness requests.
type HealthHandler struct {
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
	}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// CheckFunc adapts a function to ReadinessChecker.
type CheckFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// ReadyHandler reports readiness of the storage backend and platform
// connection.
type ReadyHandler struct {
	mu       sync.RWMutex
	checkers map[string]ReadinessChecker
	timeout  time.Duration
}

// NewReadyHandler creates a readiness handler with no checks.
func NewReadyHandler() *ReadyHandler {
	return &ReadyHandler{
		checkers: make(map[string]ReadinessChecker),
		timeout:  2 * time.Second,
	}
}

// AddChecker registers a named dependency check.
func (h *ReadyHandler) AddChecker(name string, checker ReadinessChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

type checkResult struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// ServeHTTP handles GET /ready
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	checks := make(map[string]checkResult, len(names))
	for _, name := range names {
		if err := h.checkers[name].Ping(ctx); err != nil {
			ready = false
			checks[name] = checkResult{Ready: false, Error: err.Error()}
			continue
		}
		checks[name] = checkResult{Ready: true}
	}
	h.mu.RUnlock()

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ready":  ready,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
