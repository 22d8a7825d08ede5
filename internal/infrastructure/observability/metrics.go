package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsActive  metric.Int64UpDownCounter

	// Session metrics
	SessionsStartedTotal   metric.Int64Counter
	SessionsCompletedTotal metric.Int64Counter
	SessionDuration        metric.Float64Histogram
	SessionsActive         metric.Int64UpDownCounter

	// Click metrics
	ClicksTotal               metric.Int64Counter
	AcknowledgmentErrorsTotal metric.Int64Counter

	// Command metrics
	CommandsTotal metric.Int64Counter

	// Connection metrics
	CircuitStateChangesTotal metric.Int64Counter

	// Repository metrics
	RepositoryOperationsTotal   metric.Int64Counter
	RepositoryOperationDuration metric.Float64Histogram
}

// NewMetrics creates and registers all application metrics.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error

	// HTTP metrics
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}

	m.HTTPRequestsActive, err = meter.Int64UpDownCounter(
		"http.server.requests.active",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_active: %w", err)
	}

	// Session metrics
	m.SessionsStartedTotal, err = meter.Int64Counter(
		"sessions.started.total",
		metric.WithDescription("Total number of interactive sessions started"),
		metric.WithUnit("{sessions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions_started_total: %w", err)
	}

	m.SessionsCompletedTotal, err = meter.Int64Counter(
		"sessions.completed.total",
		metric.WithDescription("Total number of interactive sessions completed, by outcome"),
		metric.WithUnit("{sessions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions_completed_total: %w", err)
	}

	m.SessionDuration, err = meter.Float64Histogram(
		"sessions.duration",
		metric.WithDescription("Interactive session lifetime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session_duration: %w", err)
	}

	m.SessionsActive, err = meter.Int64UpDownCounter(
		"sessions.active",
		metric.WithDescription("Number of running interactive sessions"),
		metric.WithUnit("{sessions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions_active: %w", err)
	}

	// Click metrics
	m.ClicksTotal, err = meter.Int64Counter(
		"clicks.total",
		metric.WithDescription("Total number of button clicks received by sessions"),
		metric.WithUnit("{clicks}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating clicks_total: %w", err)
	}

	m.AcknowledgmentErrorsTotal, err = meter.Int64Counter(
		"acknowledgments.errors.total",
		metric.WithDescription("Total number of failed click acknowledgements"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating acknowledgment_errors_total: %w", err)
	}

	m.CommandsTotal, err = meter.Int64Counter(
		"commands.total",
		metric.WithDescription("Total number of chat commands handled"),
		metric.WithUnit("{commands}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands_total: %w", err)
	}

	m.CircuitStateChangesTotal, err = meter.Int64Counter(
		"circuit_breaker.state_changes.total",
		metric.WithDescription("Total number of circuit breaker state transitions"),
		metric.WithUnit("{transitions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating circuit_state_changes_total: %w", err)
	}

	// Repository metrics
	m.RepositoryOperationsTotal, err = meter.Int64Counter(
		"repository.operations.total",
		metric.WithDescription("Total number of repository operations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository_operations_total: %w", err)
	}

	m.RepositoryOperationDuration, err = meter.Float64Histogram(
		"repository.operation.duration",
		metric.WithDescription("Repository operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository_operation_duration: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSessionStarted counts a session whose message was sent.
func (m *Metrics) RecordSessionStarted(ctx context.Context, kind string) {
	attrs := metric.WithAttributes(attribute.String("session.kind", kind))
	m.SessionsStartedTotal.Add(ctx, 1, attrs)
	m.SessionsActive.Add(ctx, 1, attrs)
}

// RecordSessionCompleted records how a started session ended.
func (m *Metrics) RecordSessionCompleted(ctx context.Context, kind, outcome string, duration time.Duration) {
	m.SessionsActive.Add(ctx, -1, metric.WithAttributes(attribute.String("session.kind", kind)))

	attrs := metric.WithAttributes(
		attribute.String("session.kind", kind),
		attribute.String("outcome", outcome),
	)
	m.SessionsCompletedTotal.Add(ctx, 1, attrs)
	m.SessionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordClick counts a click that matched a session.
func (m *Metrics) RecordClick(ctx context.Context, kind string, authorized bool) {
	m.ClicksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("session.kind", kind),
		attribute.Bool("authorized", authorized),
	))
}

// RecordAcknowledgementError counts a click acknowledgement that failed.
func (m *Metrics) RecordAcknowledgementError(ctx context.Context, kind string) {
	m.AcknowledgmentErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("session.kind", kind)))
}

// RecordCommand counts a handled chat command.
func (m *Metrics) RecordCommand(ctx context.Context, platform, name string, success bool) {
	m.CommandsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("command", name),
		attribute.Bool("success", success),
	))
}

// RecordCircuitStateChange counts a breaker transition.
func (m *Metrics) RecordCircuitStateChange(ctx context.Context, breaker, from, to string) {
	m.CircuitStateChangesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", breaker),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordRepositoryOperation records repository operation metrics.
func (m *Metrics) RecordRepositoryOperation(ctx context.Context, operation, entity string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("entity", entity),
		attribute.Bool("success", success),
	}

	m.RepositoryOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.RepositoryOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
