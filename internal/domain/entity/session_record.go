package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionKind identifies which interactive primitive produced a record.
type SessionKind string

const (
	SessionKindConfirmation   SessionKind = "confirmation"
	SessionKindMultipleChoice SessionKind = "multiple_choice"
	SessionKindPaginator      SessionKind = "paginator"
)

// SessionOutcome is how a session terminated.
type SessionOutcome string

const (
	OutcomeConfirmed SessionOutcome = "confirmed"
	OutcomeCancelled SessionOutcome = "cancelled"
	OutcomeChosen    SessionOutcome = "chosen"
	OutcomeNoChoice  SessionOutcome = "no_choice"
	OutcomeStopped   SessionOutcome = "stopped"
	OutcomeTimedOut  SessionOutcome = "timed_out"
)

// SessionRecord is the audit trail of one terminated session.
type SessionRecord struct {
	ID        string
	Kind      SessionKind
	ChannelID string
	MessageID string
	UserID    string
	Outcome   SessionOutcome

	// TimedOut is true when the terminal transition came from the timeout.
	TimedOut bool

	// Choice is the selected custom ID for multiple-choice sessions.
	Choice string

	// PageIndex is the final page shown by a paginator.
	PageIndex int

	StartedAt time.Time
	EndedAt   time.Time
}

// NewSessionRecord starts a record for a session of the given kind.
func NewSessionRecord(kind SessionKind, inv Invocation) *SessionRecord {
	return &SessionRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		ChannelID: inv.ChannelID,
		UserID:    inv.UserID,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the terminal outcome.
func (r *SessionRecord) Finish(outcome SessionOutcome, timedOut bool) *SessionRecord {
	r.Outcome = outcome
	r.TimedOut = timedOut
	r.EndedAt = time.Now().UTC()
	return r
}

// Duration returns how long the session was live.
func (r *SessionRecord) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
