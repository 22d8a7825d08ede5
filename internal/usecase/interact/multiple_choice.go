package interact

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// NoChoice is returned by MultipleChoice.Run when the prompt timed out.
// Custom IDs are never empty, so it cannot collide with a real choice.
const NoChoice = ""

// MultipleChoiceOptions customizes a multiple-choice prompt.
type MultipleChoiceOptions struct {
	Timeout time.Duration
}

// MultipleChoice is a prompt with caller-supplied buttons of which the user
// picks one.
type MultipleChoice struct {
	rt      *Runtime
	inv     entity.Invocation
	content string
	rows    []entity.ActionRow
	opts    MultipleChoiceOptions

	done      bool
	messageID string
	choice    string
	timedOut  bool
}

// NewMultipleChoice builds a prompt over rows. The rows are copied; later
// changes by the caller do not affect the session.
func (rt *Runtime) NewMultipleChoice(inv entity.Invocation, content string, rows []entity.ActionRow, opts MultipleChoiceOptions) (*MultipleChoice, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := entity.ValidateRows(rows); err != nil {
		return nil, err
	}

	copied := make([]entity.ActionRow, len(rows))
	for i, row := range rows {
		copied[i] = row.Map(func(b entity.Button) entity.Button { return b })
	}

	return &MultipleChoice{
		rt:      rt,
		inv:     inv,
		content: content,
		rows:    copied,
		opts:    opts,
	}, nil
}

// Run sends the prompt and blocks until a button is picked or the timeout
// passes. It returns the picked custom ID, or NoChoice on timeout.
func (m *MultipleChoice) Run(ctx context.Context) (string, error) {
	if m.done {
		return NoChoice, ErrSessionDone
	}
	m.done = true

	record := entity.NewSessionRecord(entity.SessionKindMultipleChoice, m.inv)
	m.rt.started(ctx, record)

	initial := entity.OutgoingMessage{
		Content:    m.content,
		Components: rowsToComponents(m.rows),
	}

	l := m.rt.newLoop(entity.SessionKindMultipleChoice, m.inv, m.opts.Timeout)
	messageID, err := l.run(ctx, initial, func(click *entity.InteractionEvent) transition {
		chosen := NoChoice
		if click == nil {
			m.timedOut = true
		} else {
			if !m.hasButton(click.CustomID) {
				return transition{ignore: true}
			}
			chosen = click.CustomID
		}

		m.choice = chosen
		return transition{
			render: entity.OutgoingMessage{
				Content:    m.content,
				Components: rowsToComponents(ResolveChoiceRows(m.rows, chosen)),
			},
			terminal: true,
		}
	})
	m.messageID = messageID
	if err != nil {
		m.choice = NoChoice
		return NoChoice, err
	}

	record.MessageID = messageID
	record.Choice = m.choice
	outcome := entity.OutcomeChosen
	if m.choice == NoChoice {
		outcome = entity.OutcomeNoChoice
	}
	m.rt.finish(ctx, record.Finish(outcome, m.timedOut))

	return m.choice, nil
}

func (m *MultipleChoice) hasButton(customID string) bool {
	for _, row := range m.rows {
		for _, b := range row.Buttons {
			if !b.IsLink() && b.CustomID == customID {
				return true
			}
		}
	}
	return false
}

// MessageID returns the prompt's message ID once it has been sent.
func (m *MultipleChoice) MessageID() string {
	return m.messageID
}

// TimedOut reports whether the prompt ended without a choice.
func (m *MultipleChoice) TimedOut() bool {
	return m.timedOut
}

// ResolveChoiceRows computes the final render of a multiple-choice prompt:
// every non-link button disabled, the chosen one styled success and the rest
// secondary. Link buttons are returned unchanged. rows is not modified.
func ResolveChoiceRows(rows []entity.ActionRow, chosen string) []entity.ActionRow {
	out := make([]entity.ActionRow, len(rows))
	for i, row := range rows {
		out[i] = row.Map(func(b entity.Button) entity.Button {
			if b.IsLink() {
				return b
			}
			style := entity.ButtonStyleSecondary
			if chosen != NoChoice && b.CustomID == chosen {
				style = entity.ButtonStyleSuccess
			}
			return b.WithStyle(style).WithDisabled(true)
		})
	}
	return out
}

func rowsToComponents(rows []entity.ActionRow) []entity.Component {
	out := make([]entity.Component, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}
