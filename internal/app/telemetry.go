package app

import (
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/observability"
)

// Version is reported as the service version. Overridden at build time.
var Version = "dev"

// setupTelemetry initializes OpenTelemetry tracing and metrics.
func (app *Application) setupTelemetry() error {
	telemetry, err := observability.NewTelemetry(observability.ServiceName, Version)
	if err != nil {
		return err
	}

	app.telemetry = telemetry

	app.logger.Get().Info("telemetry initialized",
		"service", observability.ServiceName,
		"version", Version,
		"metrics_enabled", true,
		"tracing_enabled", false, // NoOp tracer for now
	)

	return nil
}
