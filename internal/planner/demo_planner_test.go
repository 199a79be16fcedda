package planner

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/polyline"
)

func TestFetchDraftDeterministic(t *testing.T) {
	p := NewDemoPlanner(Config{}, nil)

	first, err := p.FetchDraft(context.Background(), "trip-abc")
	require.NoError(t, err)
	second, err := p.FetchDraft(context.Background(), "trip-abc")
	require.NoError(t, err)

	assert.Equal(t, first.TripID, second.TripID)
	assert.Equal(t, first.RoutePolyline, second.RoutePolyline)
	assert.JSONEq(t, string(first.Plan), string(second.Plan))
}

func TestFetchDraftPolylineMatchesDemoRoute(t *testing.T) {
	center := route.Coordinate{Lat: 41.3851, Lon: 2.1734}
	p := NewDemoPlanner(Config{Center: center}, nil)

	it, err := p.FetchDraft(context.Background(), "trip-bcn")
	require.NoError(t, err)

	decoded := polyline.Decode(it.RoutePolyline)
	stops := route.DemoWaypoints(center)
	require.Len(t, decoded, len(stops))
	for i, wp := range stops {
		assert.InDelta(t, wp.Location.Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, wp.Location.Lon, decoded[i].Lon, 1e-5)
	}
}

func TestPlanReportsRouteDistance(t *testing.T) {
	p := NewDemoPlanner(Config{}, nil)

	it, err := p.FetchDraft(context.Background(), "trip-abc")
	require.NoError(t, err)

	var plan struct {
		DistanceKm float64 `json:"distance_km"`
	}
	require.NoError(t, json.Unmarshal(it.Plan, &plan))
	assert.Greater(t, plan.DistanceKm, 0.0)
	assert.Less(t, plan.DistanceKm, 50.0, "demo stops stay within a city radius")
}

func TestFetchDraftRequiresTripID(t *testing.T) {
	p := NewDemoPlanner(Config{}, nil)

	_, err := p.FetchDraft(context.Background(), "")

	var invalid *route.ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestCreateAndFetchValidatesPayload(t *testing.T) {
	p := NewDemoPlanner(Config{}, nil)

	_, err := p.CreateAndFetch(context.Background(), route.TripPayload{})

	var invalid *route.ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestCreateAndFetchStableTripID(t *testing.T) {
	p := NewDemoPlanner(Config{}, nil)
	payload := route.TripPayload{
		Destination: "Lisbon",
		Center:      route.DefaultDemoCenter,
		Days:        4,
	}

	first, err := p.CreateAndFetch(context.Background(), payload)
	require.NoError(t, err)
	second, err := p.CreateAndFetch(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, first.TripID, second.TripID)
	assert.Contains(t, string(first.Plan), "Lisbon")
	assert.Contains(t, string(first.Plan), "\"days\":4")
}

func TestSimulatedLatencyHonorsContext(t *testing.T) {
	p := NewDemoPlanner(Config{Latency: 5 * time.Second}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.FetchDraft(ctx, "trip-slow")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFailEverySchedule(t *testing.T) {
	p := NewDemoPlanner(Config{FailEvery: 3}, nil)

	for i := 1; i <= 6; i++ {
		_, err := p.FetchDraft(context.Background(), "trip-abc")
		if i%3 == 0 {
			require.Error(t, err, "request %d", i)
			assert.Contains(t, err.Error(), "simulated outage")
		} else {
			require.NoError(t, err, "request %d", i)
		}
	}
}
