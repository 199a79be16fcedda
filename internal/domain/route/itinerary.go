package route

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Itinerary is the finalized multi-day plan returned by the remote planning
// service. The orchestrator treats it as opaque: only its presence drives the
// state machine. Plan carries the provider payload untouched; RoutePolyline is
// the encoded path geometry map consumers decode.
type Itinerary struct {
	TripID        string          `json:"trip_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	RoutePolyline string          `json:"route_polyline,omitempty"`
	Plan          json.RawMessage `json:"plan"`
}

// TripPayload is the trip-creation request forwarded to the planning service
// when no trip exists yet.
type TripPayload struct {
	Destination string     `json:"destination"`
	Center      Coordinate `json:"center"`
	Days        int        `json:"days"`
	Interests   []string   `json:"interests,omitempty"`
}

// Validate checks the payload before a session is created for it.
func (p TripPayload) Validate() error {
	if p.Destination == "" {
		return NewValidationError("destination is required")
	}
	if err := p.Center.Validate(); err != nil {
		return err
	}
	if p.Days < 1 || p.Days > 30 {
		return NewValidationError(fmt.Sprintf("days must be between 1 and 30, got %d", p.Days))
	}
	return nil
}

// ItineraryPlanner is the port to the remote planning service. Implementations
// must honor context cancellation; the orchestrator issues at most one call
// per generation attempt.
type ItineraryPlanner interface {
	// FetchDraft generates an itinerary for an existing trip.
	FetchDraft(ctx context.Context, tripID string) (*Itinerary, error)
	// CreateAndFetch creates a trip from the payload and generates its itinerary.
	CreateAndFetch(ctx context.Context, payload TripPayload) (*Itinerary, error)
}
