package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/persistence/memory"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/server"
)

const slackConfig = `
platform: slack
slack:
  bot_token: xoxb-test
  socket_mode:
    app_token: xapp-test
sessions:
  timeout: 30s
storage:
  type: sqlite
  sqlite:
    path: ":memory:"
logging:
  level: info
  format: json
`

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func newTestApp(t *testing.T, body string) (*Application, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, body)

	app, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })
	return app, path
}

func serve(t *testing.T, app *Application, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := server.NewRouter(app.handlers, server.RouterOptions{Logger: app.logger.Adapter()})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNew_SlackWithSQLite(t *testing.T) {
	app, _ := newTestApp(t, slackConfig)

	assert.Equal(t, config.PlatformSlack, app.clients.Name)
	assert.NotNil(t, app.dbPinger)
	assert.Equal(t, 30*time.Second, app.runtime.DefaultTimeout())

	w := serve(t, app, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Checks map[string]struct {
			Ready bool   `json:"ready"`
			Error string `json:"error"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Checks["storage"].Ready)
	assert.Equal(t, errPlatformDisconnected.Error(), body.Checks["platform"].Error)

	w = serve(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNew_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "platform: slack\n")

	_, err := New(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack.bot_token")
}

func TestReload_AppliesSessionSettings(t *testing.T) {
	app, path := newTestApp(t, slackConfig)

	updated := strings.Replace(slackConfig, "timeout: 30s", "timeout: 45s", 1)
	updated = strings.Replace(updated, "level: info", "level: debug", 1)
	writeConfig(t, path, updated)

	w := serve(t, app, http.MethodPost, "/-/reload")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Configuration reloaded successfully\n", w.Body.String())
	assert.Equal(t, 45*time.Second, app.runtime.DefaultTimeout())
	assert.Equal(t, "debug", strings.ToLower(app.logger.Level().String()))
}

func TestReload_StaticChangeNeedsRestart(t *testing.T) {
	app, path := newTestApp(t, slackConfig)

	writeConfig(t, path, strings.Replace(slackConfig, "xoxb-test", "xoxb-rotated", 1))

	w := serve(t, app, http.MethodPost, "/-/reload")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Configuration change requires restart\n", w.Body.String())
	assert.Equal(t, "xoxb-test", app.configManager.Get().Slack.BotToken)
}

func TestAtomicLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewAtomicLogger(&buf, "warn", "json")
	log := l.Adapter()

	log.Info("hidden")
	assert.Empty(t, buf.String())

	l.Apply("debug", "text")
	log.Debug("shown", "key", "value")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "key=value")
}

func TestInstrumentedRecords(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	records := &instrumentedRecords{next: memory.NewSessionRecordRepository(), metrics: metrics}
	ctx := context.Background()

	rec := &entity.SessionRecord{ID: "r1", Kind: entity.SessionKindConfirmation, UserID: "u1"}
	require.NoError(t, records.Save(ctx, rec))
	require.Error(t, records.Save(ctx, rec))

	found, err := records.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.UserID)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if hist, ok := m.Data.(metricdata.Histogram[float64]); ok && strings.HasPrefix(m.Name, "repository.") {
				for _, dp := range hist.DataPoints {
					count += dp.Count
				}
			}
		}
	}
	assert.Equal(t, uint64(3), count)
}
