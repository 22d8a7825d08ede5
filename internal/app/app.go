package app

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qj0r9j0vc2/button-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/eventbus"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/server"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

// Application holds all application dependencies and lifecycle
type Application struct {
	configPath    string
	config        *config.Config
	configManager *config.ConfigManager
	logger        *AtomicLogger
	telemetry     *observability.Telemetry

	// Storage
	sessionRecords repository.SessionRecordRepository
	dbPinger       repository.Pinger
	dbCloser       io.Closer

	// Chat platform
	clients *Clients

	// Sessions
	bus     *eventbus.Bus
	runtime *interact.Runtime
	router  *handler.CommandRouter

	// HTTP layer
	handlers *server.Handlers
	server   *server.Server
}

// New creates a new Application instance
func New(configPath string) (*Application, error) {
	app := &Application{configPath: configPath}

	if err := app.bootstrap(configPath); err != nil {
		return nil, err
	}

	return app, nil
}

// Run serves the ops endpoints and the chat connection until ctx is
// cancelled or one of them fails.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Get().Info("starting button-bridge",
		"platform", app.config.Platform,
		"storage", app.config.Storage.Type,
		"port", app.config.Server.Port,
	)

	if app.configPath != "" {
		if err := app.configManager.Watch(); err != nil {
			app.logger.Get().Warn("config hot reload disabled", "error", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(ctx)
	})
	g.Go(func() error {
		return app.clients.Conn.Run(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown releases telemetry and storage. Call it after Run returns.
func (app *Application) Shutdown() error {
	app.logger.Get().Info("shutting down button-bridge")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Get().Error("failed to shutdown telemetry", "error", err)
		}
	}

	if app.dbCloser != nil {
		if err := app.dbCloser.Close(); err != nil {
			app.logger.Get().Error("failed to close database", "error", err)
			return err
		}
	}

	app.logger.Get().Info("button-bridge stopped")
	return nil
}
