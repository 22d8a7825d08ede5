package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
)

type okReloader struct{}

func (okReloader) TryReload() error { return nil }

func testHandlers() *Handlers {
	ready := handler.NewReadyHandler()
	ready.AddChecker("platform", handler.CheckFunc(func(context.Context) error {
		return errors.New("not connected")
	}))

	return &Handlers{
		Health:  handler.NewHealthHandler(),
		Ready:   ready,
		Metrics: handler.NewMetricsHandler(prometheus.NewRegistry()),
		Reload:  handler.NewReloadHandler(okReloader{}, logger.Nop{}),
	}
}

func TestRouter_Routes(t *testing.T) {
	router := NewRouter(testHandlers(), RouterOptions{RequestTimeout: time.Second})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusServiceUnavailable},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/-/reload", http.StatusOK},
		{http.MethodGet, "/-/reload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/webhook/alertmanager", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_OptionalHandlers(t *testing.T) {
	handlers := testHandlers()
	handlers.Metrics = nil
	handlers.Reload = nil
	router := NewRouter(handlers, RouterOptions{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(config.ServerConfig{ShutdownTimeout: time.Second},
		NewRouter(testHandlers(), RouterOptions{}), logger.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
