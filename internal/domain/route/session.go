package route

import (
	"time"

	"github.com/google/uuid"
)

// SessionMode records how a session sourced its itinerary.
type SessionMode string

const (
	// ModeDraft fetches the itinerary of an existing trip draft.
	ModeDraft SessionMode = "draft"
	// ModePayload creates a trip from an inline payload first.
	ModePayload SessionMode = "payload"
)

// SessionStatusCancelled marks abandoned sessions in history. Live sessions
// never expose it as a phase; an abandoned run simply stops transitioning.
const SessionStatusCancelled = "cancelled"

// SessionRecord captures one route generation session for history and the
// admin surface. Status holds a Phase value or SessionStatusCancelled.
type SessionRecord struct {
	ID                uuid.UUID
	TripID            string
	Mode              SessionMode
	Status            string
	Attempt           int
	WaypointsRevealed int
	Error             string
	StartedAt         time.Time
	FinishedAt        *time.Time
	DurationMs        *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
