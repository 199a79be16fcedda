// Package planner provides itinerary sources for route generation. The demo
// planner stands in for the real trip planning backend: deterministic
// output, configurable latency, and a scheduled failure to exercise the
// retry path.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/polyline"
)

// Config tunes the demo planner. Latency is how long a fetch appears to
// take. FailEvery makes every Nth request fail with a simulated outage so
// retries can be demonstrated; zero disables failures. Center anchors the
// generated route when a payload does not carry one.
type Config struct {
	Latency   time.Duration
	FailEvery int
	Center    route.Coordinate
}

// DemoPlanner implements route.ItineraryPlanner with synthetic itineraries.
// The same trip always produces the same route.
type DemoPlanner struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	requests int
}

// NewDemoPlanner builds a planner. A zero Center falls back to the default
// demo center.
func NewDemoPlanner(cfg Config, log *zap.Logger) *DemoPlanner {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Center == (route.Coordinate{}) {
		cfg.Center = route.DefaultDemoCenter
	}
	return &DemoPlanner{cfg: cfg, log: log.Named("demo_planner")}
}

// FetchDraft returns the itinerary for an existing trip draft.
func (p *DemoPlanner) FetchDraft(ctx context.Context, tripID string) (*route.Itinerary, error) {
	if tripID == "" {
		return nil, route.NewValidationError("trip id is required")
	}
	if err := p.simulate(ctx, tripID); err != nil {
		return nil, err
	}
	return p.build(tripID, "your destination", defaultDays)
}

// CreateAndFetch creates a trip draft from the payload and returns its
// itinerary. The trip id derives from the destination so repeated demo runs
// stay stable.
func (p *DemoPlanner) CreateAndFetch(ctx context.Context, payload route.TripPayload) (*route.Itinerary, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	tripID := fmt.Sprintf("trip-%08x", hashString(payload.Destination))
	if err := p.simulate(ctx, tripID); err != nil {
		return nil, err
	}
	return p.build(tripID, payload.Destination, payload.Days)
}

const defaultDays = 3

// simulate applies the configured latency and failure schedule.
func (p *DemoPlanner) simulate(ctx context.Context, tripID string) error {
	p.mu.Lock()
	p.requests++
	n := p.requests
	p.mu.Unlock()

	p.log.Debug("planning trip",
		zap.String("trip_id", tripID),
		zap.Int("request", n),
		zap.Duration("latency", p.cfg.Latency),
	)

	if p.cfg.Latency > 0 {
		timer := time.NewTimer(p.cfg.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if p.cfg.FailEvery > 0 && n%p.cfg.FailEvery == 0 {
		return fmt.Errorf("trip planner unavailable: simulated outage on request %d", n)
	}
	return nil
}

type demoPlan struct {
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	Stops       []string `json:"stops"`
	DistanceKm  float64  `json:"distance_km"`
	Summary     string   `json:"summary"`
}

func (p *DemoPlanner) build(tripID, destination string, days int) (*route.Itinerary, error) {
	if days <= 0 {
		days = defaultDays
	}
	stops := route.DemoWaypoints(p.cfg.Center)
	path := make([]route.Coordinate, 0, len(stops))
	names := make([]string, 0, len(stops))
	var distance float64
	for _, wp := range stops {
		if len(path) > 0 {
			distance += path[len(path)-1].DistanceKm(wp.Location)
		}
		path = append(path, wp.Location)
		names = append(names, wp.Name)
	}

	plan, err := json.Marshal(demoPlan{
		Destination: destination,
		Days:        days,
		Stops:       names,
		DistanceKm:  math.Round(distance*10) / 10,
		Summary:     fmt.Sprintf("%d day route through %d stops covering %.1f km", days, len(stops), distance),
	})
	if err != nil {
		return nil, fmt.Errorf("encode demo plan: %w", err)
	}

	return &route.Itinerary{
		TripID:        tripID,
		GeneratedAt:   time.Now().UTC(),
		RoutePolyline: polyline.Encode(path),
		Plan:          plan,
	}, nil
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
