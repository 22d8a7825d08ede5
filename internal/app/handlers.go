package app

import (
	"context"
	"errors"

	"github.com/qj0r9j0vc2/button-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/eventbus"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/server"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

var errPlatformDisconnected = errors.New("platform not connected")

func (app *Application) initializeSessions() {
	log := app.logger.Adapter()

	app.bus = eventbus.New()
	app.runtime = interact.NewRuntime(app.clients.Platform, app.bus,
		interact.WithLogger(log),
		interact.WithMetrics(app.telemetry.Metrics),
		interact.WithRecorder(app.sessionRecords),
		interact.WithDefaultTimeout(app.config.Sessions.Timeout),
	)

	app.router = handler.NewCommandRouter(handler.CommandRouterConfig{
		Runtime:  app.runtime,
		Replier:  app.clients.Platform,
		History:  app.sessionRecords,
		Platform: app.clients.Name,
		Prefix:   app.config.CommandPrefix(),
		Logger:   log,
		Metrics:  app.telemetry.Metrics,
		Tracer:   app.telemetry.Tracer("button-bridge/commands"),
		MaxChars: app.config.Sessions.PaginatorMaxChars,
		MinChars: app.config.Sessions.PaginatorMinChars,
	})

	app.clients.attach(app.bus, app.router)
}

func (app *Application) initializeHandlers() {
	readyHandler := handler.NewReadyHandler()
	if app.dbPinger != nil {
		readyHandler.AddChecker("storage", app.dbPinger)
	}
	readyHandler.AddChecker("platform", handler.CheckFunc(func(context.Context) error {
		if !app.clients.Conn.IsConnected() {
			return errPlatformDisconnected
		}
		return nil
	}))

	app.handlers = &server.Handlers{
		Health:  handler.NewHealthHandler(),
		Ready:   readyHandler,
		Metrics: handler.NewMetricsHandler(app.telemetry.Registry),
		Reload:  handler.NewReloadHandler(app.configManager, app.logger.Adapter()),
	}
}

func (app *Application) setupServer() {
	router := server.NewRouter(app.handlers, server.RouterOptions{
		Logger:         app.logger.Adapter(),
		Metrics:        app.telemetry.Metrics,
		RequestTimeout: app.config.Server.RequestTimeout,
	})
	app.server = server.New(app.config.Server, router, app.logger.Adapter())
}
