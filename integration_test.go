//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/application"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/events"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/planner"
)

// TestRouteSession_CompletesAndPublishes drives one payload-mode session
// through the real stack: the session row in Postgres reaches "completed"
// and the lifecycle events land on trip.route.events.
func TestRouteSession_CompletesAndPublishes(t *testing.T) {
	be := startBackends(t)
	stack := newRouteStack(t, be, planner.Config{
		Latency: 50 * time.Millisecond,
	})

	dto, err := stack.Service.StartSession(context.Background(), application.StartSessionRequest{
		Destination: "Lisbon",
		Center:      route.Coordinate{Lat: 38.7077, Lon: -9.1366},
		Days:        3,
	})
	require.NoError(t, err)
	require.Equal(t, "loading", dto.Phase)

	// Assert: the history row reaches "completed" with the full reveal.
	model := waitForSessionStatus(t, be.DB, dto.ID, "completed", 15*time.Second)
	assert.Equal(t, 8, model.WaypointsRevealed)
	assert.NotEmpty(t, model.TripID)
	require.NotNil(t, model.DurationMs, "duration_ms should be set on completion")
	assert.GreaterOrEqual(t, *model.DurationMs, int64(300), "completion cannot beat the visible window")
	assert.NotNil(t, model.FinishedAt)

	// Assert: started event on trip.route.events.
	startedCE := awaitEvent(t, be.Brokers, events.TopicRouteEvents,
		events.RouteSessionStarted, 15*time.Second)
	var started events.RouteSessionEvent
	require.NoError(t, startedCE.ParseData(&started))
	assert.Equal(t, dto.ID, started.SessionID)
	assert.Equal(t, "idle", started.FromPhase)
	assert.Equal(t, "loading", started.ToPhase)
	assert.Equal(t, 1, started.Attempt)

	// Assert: completed event carries the final trip and reveal count.
	completedCE := awaitEvent(t, be.Brokers, events.TopicRouteEvents,
		events.RouteSessionCompleted, 15*time.Second)
	var completed events.RouteSessionEvent
	require.NoError(t, completedCE.ParseData(&completed))
	assert.Equal(t, dto.ID, completed.SessionID)
	assert.Equal(t, model.TripID, completed.TripID)
	assert.Equal(t, "completed", completed.ToPhase)
	assert.Equal(t, 8, completed.WaypointsRevealed)
	assert.GreaterOrEqual(t, completed.ElapsedMs, int64(300))
}

// TestRouteSession_FailureAndRetry exercises the failed phase end to end:
// the scheduled planner outage fails the session, the failure is persisted
// and published, and a retry completes on the next attempt.
func TestRouteSession_FailureAndRetry(t *testing.T) {
	be := startBackends(t)
	stack := newRouteStack(t, be, planner.Config{
		Latency:   20 * time.Millisecond,
		FailEvery: 2,
	})

	// Burn the first planner request so the session under test hits the
	// scheduled outage on request two.
	_, err := stack.Planner.FetchDraft(context.Background(), "warmup-trip")
	require.NoError(t, err)

	dto, err := stack.Service.StartSession(context.Background(), application.StartSessionRequest{
		Destination: "Porto",
		Center:      route.Coordinate{Lat: 41.1579, Lon: -8.6291},
		Days:        2,
	})
	require.NoError(t, err)

	// Assert: the failure is persisted with its cause.
	model := waitForSessionStatus(t, be.DB, dto.ID, "failed", 15*time.Second)
	assert.Contains(t, model.Error, "trip planner unavailable")
	assert.Equal(t, 1, model.Attempt)

	failedCE := awaitEvent(t, be.Brokers, events.TopicRouteEvents,
		events.RouteSessionFailed, 15*time.Second)
	var failed events.RouteSessionEvent
	require.NoError(t, failedCE.ParseData(&failed))
	assert.Equal(t, dto.ID, failed.SessionID)
	assert.Contains(t, failed.Error, "trip planner unavailable")

	// Retry: request three succeeds.
	_, err = stack.Service.RetrySession(context.Background(), dto.ID)
	require.NoError(t, err)

	model = waitForSessionStatus(t, be.DB, dto.ID, "completed", 15*time.Second)
	assert.Equal(t, 2, model.Attempt)
	assert.Empty(t, model.Error, "error is cleared on a successful retry")

	retriedCE := awaitEvent(t, be.Brokers, events.TopicRouteEvents,
		events.RouteSessionRetried, 15*time.Second)
	var retried events.RouteSessionEvent
	require.NoError(t, retriedCE.ParseData(&retried))
	assert.Equal(t, dto.ID, retried.SessionID)
	assert.Equal(t, "failed", retried.FromPhase)
	assert.Equal(t, "idle", retried.ToPhase)
}
