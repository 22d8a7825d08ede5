package app

import (
	"fmt"
	"os"

	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
)

func (app *Application) bootstrap(configPath string) error {
	// 1. Load configuration
	if err := app.loadConfig(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// 2. Setup logger
	app.setupLogger()

	// 3. Setup telemetry (OpenTelemetry)
	if err := app.setupTelemetry(); err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	// 4. Setup config manager with reload callback
	if err := app.setupConfigManager(configPath); err != nil {
		return fmt.Errorf("setting up config manager: %w", err)
	}

	// 5. Initialize storage layer
	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// 6. Initialize the chat platform
	if err := app.initializeClients(); err != nil {
		app.closeStorage()
		return fmt.Errorf("initializing clients: %w", err)
	}

	// 7. Initialize the session runtime and command router
	app.initializeSessions()

	// 8. Initialize HTTP handlers and server
	app.initializeHandlers()
	app.setupServer()

	return nil
}

func (app *Application) loadConfig(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	app.config = cfg
	return nil
}

func (app *Application) setupLogger() {
	app.logger = NewAtomicLogger(os.Stdout, app.config.Logging.Level, app.config.Logging.Format)
	app.logger.Get().Info("configuration loaded",
		"platform", app.config.Platform,
		"storage_type", app.config.Storage.Type,
		"server_port", app.config.Server.Port,
		"log_level", app.config.Logging.Level,
	)
}

func (app *Application) setupConfigManager(configPath string) error {
	manager, err := config.NewConfigManager(configPath, app.config, app.logger.Adapter())
	if err != nil {
		return err
	}

	manager.OnReload(func(cfg *config.Config) {
		app.logger.Apply(cfg.Logging.Level, cfg.Logging.Format)
		if app.runtime != nil {
			app.runtime.SetDefaultTimeout(cfg.Sessions.Timeout)
		}
		if app.router != nil {
			app.router.SetPageLimits(cfg.Sessions.PaginatorMaxChars, cfg.Sessions.PaginatorMinChars)
		}
		app.logger.Get().Info("applied reloaded settings",
			"log_level", cfg.Logging.Level,
			"session_timeout", cfg.Sessions.Timeout.String(),
		)
	})

	app.configManager = manager
	return nil
}
