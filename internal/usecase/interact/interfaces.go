package interact

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// Platform is the narrow slice of the chat platform sessions talk to.
type Platform interface {
	// SendMessage posts a new message and returns its platform identifier.
	SendMessage(ctx context.Context, channelID string, msg entity.OutgoingMessage) (messageID string, err error)

	// EditMessage replaces the content and components of an existing message.
	EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutgoingMessage) error

	// Acknowledge answers one interaction within the platform response window.
	Acknowledge(ctx context.Context, handle entity.AckHandle) error
}

// EventSource hands out filtered views of the shared inbound event stream.
type EventSource interface {
	Subscribe(match func(entity.InteractionEvent) bool) Stream
}

// Stream is one session's view of the event stream.
type Stream interface {
	// Next blocks until a matching event arrives or deadline passes.
	// A timeout is reported through WaitResult.TimedOut, never as an error.
	Next(ctx context.Context, deadline time.Time) (entity.WaitResult, error)
	Close()
}

// Recorder receives the audit record of every terminated session.
type Recorder interface {
	Save(ctx context.Context, record *entity.SessionRecord) error
}

// Metrics is the subset of observability the sessions report to.
type Metrics interface {
	RecordSessionStarted(ctx context.Context, kind string)
	RecordSessionCompleted(ctx context.Context, kind, outcome string, duration time.Duration)
	RecordClick(ctx context.Context, kind string, authorized bool)
	RecordAcknowledgementError(ctx context.Context, kind string)
}
