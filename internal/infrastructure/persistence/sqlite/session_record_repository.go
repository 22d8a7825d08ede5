package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
)

const selectSessionRecord = `
	SELECT id, kind, channel_id, message_id, user_id, outcome,
		timed_out, choice, page_index, started_at, ended_at
	FROM session_records`

// SessionRecordRepository provides SQLite implementation of repository.SessionRecordRepository.
type SessionRecordRepository struct {
	db *sql.DB
}

// NewSessionRecordRepository creates a new SQLite-backed session record repository.
func NewSessionRecordRepository(db *sql.DB) *SessionRecordRepository {
	return &SessionRecordRepository{db: db}
}

// Save persists a new record.
func (r *SessionRecordRepository) Save(ctx context.Context, record *entity.SessionRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_records (
			id, kind, channel_id, message_id, user_id, outcome,
			timed_out, choice, page_index, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, string(record.Kind), record.ChannelID,
		nullString(record.MessageID), record.UserID, string(record.Outcome),
		boolToInt(record.TimedOut), nullString(record.Choice), record.PageIndex,
		timeToString(record.StartedAt), timeToString(record.EndedAt),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("session record %s: %w", record.ID, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert session record: %w", err)
	}

	return nil
}

// FindByID retrieves a record by its ID.
// Returns nil, nil if not found.
func (r *SessionRecordRepository) FindByID(ctx context.Context, id string) (*entity.SessionRecord, error) {
	row := r.db.QueryRowContext(ctx, selectSessionRecord+` WHERE id = ?`, id)

	record, err := scanSessionRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session record: %w", err)
	}
	return record, nil
}

// FindByUser returns the most recent records of a user, newest first.
func (r *SessionRecordRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*entity.SessionRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := r.db.QueryContext(ctx, selectSessionRecord+`
		WHERE user_id = ?
		ORDER BY ended_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query session records by user: %w", err)
	}
	defer rows.Close()

	records := []*entity.SessionRecord{}
	for rows.Next() {
		record, err := scanSessionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSessionRecord(s scanner) (*entity.SessionRecord, error) {
	var (
		record    entity.SessionRecord
		kind      string
		outcome   string
		messageID sql.NullString
		choice    sql.NullString
		timedOut  int
		startedAt string
		endedAt   string
	)

	err := s.Scan(
		&record.ID, &kind, &record.ChannelID, &messageID, &record.UserID, &outcome,
		&timedOut, &choice, &record.PageIndex, &startedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Kind = entity.SessionKind(kind)
	record.Outcome = entity.SessionOutcome(outcome)
	record.MessageID = stringFromNull(messageID)
	record.Choice = stringFromNull(choice)
	record.TimedOut = timedOut != 0

	if record.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if record.EndedAt, err = parseTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse ended_at: %w", err)
	}

	return &record, nil
}
