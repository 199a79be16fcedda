package route

import (
	"context"

	"github.com/google/uuid"
)

// SessionHistoryRepository persists session lifecycle records for auditing
// and the admin surface. Implementations must be safe for concurrent use.
type SessionHistoryRepository interface {
	// Save persists a new session record.
	Save(ctx context.Context, rec *SessionRecord) error

	// Update persists the current state of an existing record.
	Update(ctx context.Context, rec *SessionRecord) error

	// FindByID retrieves a session record by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*SessionRecord, error)

	// ListRecent returns records ordered newest first, with pagination.
	ListRecent(ctx context.Context, page, limit int) ([]*SessionRecord, int64, error)

	// CountByStatus returns record counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
