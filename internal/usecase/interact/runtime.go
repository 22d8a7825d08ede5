// Package interact implements button-driven interactive sessions:
// confirmation prompts, multiple-choice prompts and paginators.
//
// Every session follows the same reconciliation loop: send a message with
// buttons, wait for a click on that message, acknowledge it, check the
// clicking user, apply the transition and edit the message, until the
// session reaches a terminal state or times out.
package interact

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
)

// DefaultTimeout is how long a session waits after the last valid click.
const DefaultTimeout = 60 * time.Second

// ErrSessionDone is returned when Run is called on a session that already ran.
var ErrSessionDone = errors.New("session already ran")

// Runtime bundles the collaborators shared by every session.
type Runtime struct {
	platform Platform
	events   EventSource
	logger   logger.Logger
	metrics  Metrics
	recorder Recorder

	defaultTimeout atomic.Int64
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) RuntimeOption {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithMetrics reports session activity to m.
func WithMetrics(m Metrics) RuntimeOption {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// WithRecorder stores an audit record for every terminated session.
func WithRecorder(r Recorder) RuntimeOption {
	return func(rt *Runtime) {
		rt.recorder = r
	}
}

// WithDefaultTimeout sets the timeout used when a session does not set one.
func WithDefaultTimeout(d time.Duration) RuntimeOption {
	return func(rt *Runtime) {
		rt.SetDefaultTimeout(d)
	}
}

// NewRuntime creates a Runtime over a platform and its event stream.
func NewRuntime(platform Platform, events EventSource, opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		platform: platform,
		events:   events,
		logger:   logger.Nop{},
	}
	rt.defaultTimeout.Store(int64(DefaultTimeout))
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// SetDefaultTimeout changes the default timeout for sessions created later.
// Non-positive values are ignored.
func (rt *Runtime) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		rt.defaultTimeout.Store(int64(d))
	}
}

// DefaultTimeout returns the current default session timeout.
func (rt *Runtime) DefaultTimeout() time.Duration {
	return time.Duration(rt.defaultTimeout.Load())
}

func (rt *Runtime) timeoutOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return rt.DefaultTimeout()
}

func (rt *Runtime) started(ctx context.Context, record *entity.SessionRecord) {
	if rt.metrics != nil {
		rt.metrics.RecordSessionStarted(ctx, string(record.Kind))
	}
	rt.logger.Debug("session started",
		"session_id", record.ID,
		"kind", record.Kind,
		"channel_id", record.ChannelID,
		"user_id", record.UserID,
	)
}

// finish reports and stores a terminated session. Storage failures are
// logged and never change the session result.
func (rt *Runtime) finish(ctx context.Context, record *entity.SessionRecord) {
	if rt.metrics != nil {
		rt.metrics.RecordSessionCompleted(ctx, string(record.Kind), string(record.Outcome), record.Duration())
	}

	rt.logger.Info("session finished",
		"session_id", record.ID,
		"kind", record.Kind,
		"message_id", record.MessageID,
		"outcome", record.Outcome,
		"timed_out", record.TimedOut,
		"duration", record.Duration(),
	)

	if rt.recorder == nil {
		return
	}
	if err := rt.recorder.Save(ctx, record); err != nil {
		rt.logger.Warn("failed to store session record",
			"session_id", record.ID,
			"error", err,
		)
	}
}
