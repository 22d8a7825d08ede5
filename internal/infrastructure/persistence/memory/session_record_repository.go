package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
)

// SessionRecordRepository provides an in-memory implementation of
// repository.SessionRecordRepository. Thread-safe for concurrent access.
type SessionRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.SessionRecord // id -> record
	byUser  map[string][]string              // userID -> record IDs
}

// NewSessionRecordRepository creates a new in-memory session record repository.
func NewSessionRecordRepository() *SessionRecordRepository {
	return &SessionRecordRepository{
		records: make(map[string]*entity.SessionRecord),
		byUser:  make(map[string][]string),
	}
}

// Save persists a new record.
func (r *SessionRecordRepository) Save(ctx context.Context, record *entity.SessionRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return fmt.Errorf("session record %s: %w", record.ID, repository.ErrAlreadyExists)
	}

	// Store a copy to prevent external mutations
	recordCopy := *record
	r.records[record.ID] = &recordCopy
	r.byUser[record.UserID] = append(r.byUser[record.UserID], record.ID)

	return nil
}

// FindByID retrieves a record by its ID.
func (r *SessionRecordRepository) FindByID(ctx context.Context, id string) (*entity.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}

	recordCopy := *record
	return &recordCopy, nil
}

// FindByUser returns the most recent records of a user, newest first.
func (r *SessionRecordRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*entity.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	records := make([]*entity.SessionRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := r.records[id]; ok {
			recordCopy := *record
			records = append(records, &recordCopy)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EndedAt.After(records[j].EndedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Len returns the number of stored records.
func (r *SessionRecordRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
