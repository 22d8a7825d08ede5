package interact

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// Custom IDs of the confirmation buttons.
const (
	ConfirmID = "confirm"
	CancelID  = "cancel"
)

// ConfirmationOptions customizes a confirmation prompt. Zero values use the
// defaults.
type ConfirmationOptions struct {
	// Destructive styles the confirm button as danger instead of primary.
	Destructive bool

	Timeout      time.Duration
	ConfirmLabel string // default "Confirm"
	CancelLabel  string // default "Cancel"

	// ConfirmMessage and CancelMessage replace the content once resolved.
	// Defaults are "<content>\nConfirmed" and "<content>\nCancelled".
	ConfirmMessage string
	CancelMessage  string
}

// Confirmation is a two-button yes/no prompt.
type Confirmation struct {
	rt      *Runtime
	inv     entity.Invocation
	content string
	opts    ConfirmationOptions
	row     entity.ActionRow

	done      bool
	messageID string
	confirmed bool
	timedOut  bool
}

// NewConfirmation builds a confirmation prompt for inv. Invalid labels fail
// here, before anything is sent.
func (rt *Runtime) NewConfirmation(inv entity.Invocation, content string, opts ConfirmationOptions) (*Confirmation, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if opts.ConfirmLabel == "" {
		opts.ConfirmLabel = "Confirm"
	}
	if opts.CancelLabel == "" {
		opts.CancelLabel = "Cancel"
	}

	confirmStyle := entity.ButtonStylePrimary
	if opts.Destructive {
		confirmStyle = entity.ButtonStyleDanger
	}
	confirm, err := entity.NewButton(confirmStyle, opts.ConfirmLabel, ConfirmID)
	if err != nil {
		return nil, err
	}
	cancel, err := entity.NewButton(entity.ButtonStyleSecondary, opts.CancelLabel, CancelID)
	if err != nil {
		return nil, err
	}
	row, err := entity.NewActionRow(confirm, cancel)
	if err != nil {
		return nil, err
	}

	return &Confirmation{
		rt:      rt,
		inv:     inv,
		content: content,
		opts:    opts,
		row:     row,
	}, nil
}

// Run sends the prompt and blocks until the user answers or the timeout
// passes. It returns true only if the user confirmed; a timeout cancels.
func (c *Confirmation) Run(ctx context.Context) (bool, error) {
	if c.done {
		return false, ErrSessionDone
	}
	c.done = true

	record := entity.NewSessionRecord(entity.SessionKindConfirmation, c.inv)
	c.rt.started(ctx, record)

	initial := entity.OutgoingMessage{
		Content:    c.content,
		Components: []entity.Component{c.row},
	}

	l := c.rt.newLoop(entity.SessionKindConfirmation, c.inv, c.opts.Timeout)
	messageID, err := l.run(ctx, initial, func(click *entity.InteractionEvent) transition {
		answer := CancelID
		if click == nil {
			c.timedOut = true
		} else {
			switch click.CustomID {
			case ConfirmID, CancelID:
				answer = click.CustomID
			default:
				return transition{ignore: true}
			}
		}

		c.confirmed = answer == ConfirmID
		return transition{
			render:   entity.OutgoingMessage{Content: c.resolvedContent()},
			terminal: true,
		}
	})
	c.messageID = messageID
	if err != nil {
		c.confirmed = false
		return false, err
	}

	record.MessageID = messageID
	outcome := entity.OutcomeCancelled
	if c.confirmed {
		outcome = entity.OutcomeConfirmed
	}
	c.rt.finish(ctx, record.Finish(outcome, c.timedOut))

	return c.confirmed, nil
}

func (c *Confirmation) resolvedContent() string {
	if c.confirmed {
		if c.opts.ConfirmMessage != "" {
			return c.opts.ConfirmMessage
		}
		return c.content + "\nConfirmed"
	}
	if c.opts.CancelMessage != "" {
		return c.opts.CancelMessage
	}
	return c.content + "\nCancelled"
}

// MessageID returns the prompt's message ID once it has been sent.
func (c *Confirmation) MessageID() string {
	return c.messageID
}

// TimedOut reports whether the prompt was cancelled by the timeout.
func (c *Confirmation) TimedOut() bool {
	return c.timedOut
}
