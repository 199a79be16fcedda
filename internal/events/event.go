// Package events publishes route session lifecycle events to the bus in the
// CloudEvents envelope shared across TravelBuddy services.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicRouteEvents carries every route session lifecycle event.
const TopicRouteEvents = "trip.route.events"

// Route session event types.
const (
	RouteSessionStarted   = "route.session.started"
	RouteSessionCompleted = "route.session.completed"
	RouteSessionFailed    = "route.session.failed"
	RouteSessionRetried   = "route.session.retried"
	RouteSessionCancelled = "route.session.cancelled"
)

// CloudEvent is the envelope every message on the bus shares.
type CloudEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	SpecVersion string          `json:"specversion"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// NewCloudEvent wraps a payload in a fresh envelope.
func NewCloudEvent(source, eventType string, data interface{}) (CloudEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("marshal event data: %w", err)
	}
	return CloudEvent{
		ID:          uuid.NewString(),
		Source:      source,
		SpecVersion: "1.0",
		Type:        eventType,
		Time:        time.Now().UTC(),
		Data:        payload,
	}, nil
}

// ParseCloudEvent decodes an envelope from its wire form.
func ParseCloudEvent(raw []byte) (CloudEvent, error) {
	var e CloudEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return CloudEvent{}, fmt.Errorf("parse cloud event: %w", err)
	}
	return e, nil
}

// ParseData unmarshals the envelope payload into out.
func (e CloudEvent) ParseData(out interface{}) error {
	return json.Unmarshal(e.Data, out)
}

// RouteSessionEvent is the payload for all route.session.* event types.
type RouteSessionEvent struct {
	SessionID         uuid.UUID `json:"session_id"`
	TripID            string    `json:"trip_id,omitempty"`
	FromPhase         string    `json:"from_phase"`
	ToPhase           string    `json:"to_phase"`
	Attempt           int       `json:"attempt"`
	ElapsedMs         int64     `json:"elapsed_ms"`
	WaypointsRevealed int       `json:"waypoints_revealed"`
	Error             string    `json:"error,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}
