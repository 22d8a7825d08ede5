package server

import (
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/button-bridge/internal/adapter/handler/middleware"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/observability"
)

// Handlers holds the ops endpoints. Metrics and Reload are optional.
type Handlers struct {
	Health  *handler.HealthHandler
	Ready   *handler.ReadyHandler
	Metrics *handler.MetricsHandler
	Reload  *handler.ReloadHandler
}

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	Logger         logger.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// NewRouter creates the ops HTTP router.
func NewRouter(handlers *Handlers, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", handlers.Health)
	mux.Handle("/ready", handlers.Ready)

	if handlers.Metrics != nil {
		mux.Handle("/metrics", handlers.Metrics)
	}

	if handlers.Reload != nil {
		mux.Handle("/-/reload", handlers.Reload)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}

	// Observability must wrap the mux directly to see the matched pattern.
	var h http.Handler = mux
	if opts.Metrics != nil {
		h = middleware.Observability(opts.Metrics)(h)
	}
	if opts.RequestTimeout > 0 {
		h = middleware.Timeout(opts.RequestTimeout)(h)
	}
	h = middleware.RequestID(h)
	h = middleware.Logging(log)(h)
	h = middleware.Recovery(log)(h)

	return h
}
