package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
)

const selectSessionRecord = `
	SELECT id, kind, channel_id, message_id, user_id, outcome,
		timed_out, choice, page_index, started_at, ended_at
	FROM session_records`

// SessionRecordRepository implements repository.SessionRecordRepository on MySQL.
type SessionRecordRepository struct {
	db *DB
}

// NewSessionRecordRepository creates a new MySQL-backed session record repository.
func NewSessionRecordRepository(db *DB) *SessionRecordRepository {
	return &SessionRecordRepository{db: db}
}

// Save persists a new record.
func (r *SessionRecordRepository) Save(ctx context.Context, record *entity.SessionRecord) error {
	_, err := r.db.Primary().ExecContext(ctx, `
		INSERT INTO session_records (
			id, kind, channel_id, message_id, user_id, outcome,
			timed_out, choice, page_index, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, string(record.Kind), record.ChannelID,
		nullString(record.MessageID), record.UserID, string(record.Outcome),
		record.TimedOut, nullString(record.Choice), record.PageIndex,
		timeToTimestamp(record.StartedAt), timeToTimestamp(record.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session record %s: %w", record.ID, mapError(err))
	}
	return nil
}

// FindByID retrieves a record by its ID.
// Returns nil, nil if not found.
func (r *SessionRecordRepository) FindByID(ctx context.Context, id string) (*entity.SessionRecord, error) {
	row := r.db.Primary().QueryRowContext(ctx, selectSessionRecord+` WHERE id = ?`, id)

	record, err := scanSessionRecord(row)
	if err != nil {
		if errors.Is(mapError(err), repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding session record %s: %w", id, err)
	}
	return record, nil
}

// FindByUser returns the most recent records of a user, newest first.
func (r *SessionRecordRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*entity.SessionRecord, error) {
	query := selectSessionRecord + ` WHERE user_id = ? ORDER BY ended_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Primary().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying session records by user: %w", err)
	}
	defer rows.Close()

	records := []*entity.SessionRecord{}
	for rows.Next() {
		record, err := scanSessionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session records: %w", err)
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
	)

	err := s.Scan(
		&record.ID, &kind, &record.ChannelID, &messageID, &record.UserID, &outcome,
		&record.TimedOut, &choice, &record.PageIndex, &record.StartedAt, &record.EndedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Kind = entity.SessionKind(kind)
	record.Outcome = entity.SessionOutcome(outcome)
	record.MessageID = stringValue(messageID)
	record.Choice = stringValue(choice)

	return &record, nil
}
