package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// transition is what a session decides after a click or a timeout.
type transition struct {
	render   entity.OutgoingMessage
	terminal bool

	// ignore leaves the state untouched and keeps waiting without an edit.
	ignore bool
}

// stepFunc applies an authorized click to the session. A nil click means the
// deadline passed; the session must then return a terminal transition.
type stepFunc func(click *entity.InteractionEvent) transition

// loop drives the send → wait → ack → authorize → apply → edit cycle shared
// by every session type.
type loop struct {
	rt      *Runtime
	kind    entity.SessionKind
	inv     entity.Invocation
	timeout time.Duration
}

func (rt *Runtime) newLoop(kind entity.SessionKind, inv entity.Invocation, timeout time.Duration) *loop {
	return &loop{
		rt:      rt,
		kind:    kind,
		inv:     inv,
		timeout: rt.timeoutOr(timeout),
	}
}

// run sends initial and feeds clicks to step until it reports a terminal
// transition. It returns the message ID, which is set as soon as the
// initial send succeeded, even when a later call fails.
func (l *loop) run(ctx context.Context, initial entity.OutgoingMessage, step stepFunc) (string, error) {
	messageID, err := l.rt.platform.SendMessage(ctx, l.inv.ChannelID, initial)
	if err != nil {
		return "", fmt.Errorf("sending %s message: %w", l.kind, err)
	}

	channelID := l.inv.ChannelID
	stream := l.rt.events.Subscribe(func(evt entity.InteractionEvent) bool {
		return evt.IsButtonClickOn(channelID, messageID)
	})
	defer stream.Close()

	// The deadline only moves after an authorized click, so clicks from
	// other users cannot keep a session alive.
	deadline := time.Now().Add(l.timeout)

	for {
		res, err := stream.Next(ctx, deadline)
		if err != nil {
			return messageID, fmt.Errorf("waiting for %s click: %w", l.kind, err)
		}

		var click *entity.InteractionEvent
		if !res.TimedOut {
			evt := res.Event

			// Acknowledge before anything else, authorized or not.
			if err := l.rt.platform.Acknowledge(ctx, evt.Ack); err != nil {
				if l.rt.metrics != nil {
					l.rt.metrics.RecordAcknowledgementError(ctx, string(l.kind))
				}
				return messageID, fmt.Errorf("acknowledging interaction %s: %w", evt.Ack.InteractionID, err)
			}

			authorized := evt.UserID == l.inv.UserID
			if l.rt.metrics != nil {
				l.rt.metrics.RecordClick(ctx, string(l.kind), authorized)
			}
			if !authorized {
				l.rt.logger.Debug("ignoring click from another user",
					"kind", l.kind,
					"message_id", messageID,
					"user_id", evt.UserID,
					"custom_id", evt.CustomID,
				)
				continue
			}
			click = &evt
		}

		tr := step(click)
		if tr.ignore && click != nil {
			l.rt.logger.Debug("ignoring click on unknown button",
				"kind", l.kind,
				"message_id", messageID,
				"custom_id", click.CustomID,
			)
			continue
		}

		if err := l.rt.platform.EditMessage(ctx, channelID, messageID, tr.render); err != nil {
			return messageID, fmt.Errorf("editing %s message: %w", l.kind, err)
		}
		if tr.terminal {
			return messageID, nil
		}

		deadline = time.Now().Add(l.timeout)
	}
}
