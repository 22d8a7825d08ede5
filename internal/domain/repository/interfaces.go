package repository

import (
	"context"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// SessionRecordRepository stores the audit trail of terminated sessions.
// Records are write-once; nothing reads them back to resume a session.
type SessionRecordRepository interface {
	// Save persists a new record.
	// Returns ErrAlreadyExists if a record with the same ID exists.
	Save(ctx context.Context, record *entity.SessionRecord) error

	// FindByID retrieves a record by its ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id string) (*entity.SessionRecord, error)

	// FindByUser returns the most recent records of a user, newest first.
	// A limit <= 0 returns all of them.
	FindByUser(ctx context.Context, userID string, limit int) ([]*entity.SessionRecord, error)
}

// Pinger is implemented by storage backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
