// Terminal driver for the route generation core. Runs one session against
// the demo planner and prints the progressive reveal, without the HTTP layer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/logger"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/planner"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/routegen"
)

// consoleObserver prints phase changes and signals finished runs.
type consoleObserver struct {
	finished chan routegen.TransitionEvent
}

func (c *consoleObserver) PhaseChanged(ev routegen.TransitionEvent) {
	fmt.Printf("== phase %s -> %s (attempt %d, %.1fs elapsed)\n",
		ev.From, ev.To, ev.Attempt, ev.Elapsed.Seconds())
	if ev.To.IsFinished() {
		c.finished <- ev
	}
}

func main() {
	destination := flag.String("destination", "Lisbon", "Trip destination")
	days := flag.Int("days", 3, "Number of trip days")
	latency := flag.Duration("latency", 4*time.Second, "Artificial planner latency")
	failEvery := flag.Int("fail-every", 0, "Fail every Nth planner request (0 disables)")
	minVisible := flag.Duration("min-visible", routegen.DefaultMinVisible, "Minimum visible loading window")
	revealEvery := flag.Duration("reveal-every", 0, "Waypoint reveal cadence (0 uses the default)")
	subtitleEvery := flag.Duration("subtitle-every", 0, "Subtitle rotation cadence (0 uses the default)")
	retries := flag.Int("retries", 1, "Retries after a failed session")
	flag.Parse()

	zlog, err := logger.New("development")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	tripPlanner := planner.NewDemoPlanner(planner.Config{
		Latency:   *latency,
		FailEvery: *failEvery,
	}, zlog)

	obs := &consoleObserver{finished: make(chan routegen.TransitionEvent, 1)}
	orch := routegen.New(uuid.New(), routegen.Request{
		Payload: &route.TripPayload{
			Destination: *destination,
			Center:      route.DefaultDemoCenter,
			Days:        *days,
		},
	}, tripPlanner, routegen.Config{
		MinVisible:    *minVisible,
		RevealEvery:   *revealEvery,
		SubtitleEvery: *subtitleEvery,
	}, zlog, obs)

	fmt.Printf("Generating a %d-day route for %s...\n\n", *days, *destination)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.Start(ctx)

	left := *retries
	for {
		ev := watch(orch, obs.finished)
		if ev.To == route.PhaseCompleted {
			printItinerary(orch.Snapshot())
			return
		}

		fmt.Printf("\nRoute generation failed: %s\n", ev.Err)
		if left == 0 {
			os.Exit(1)
		}
		left--

		fmt.Println("Retrying...")
		if err := orch.Retry(ctx); err != nil {
			log.Fatalf("retry rejected: %v", err)
		}
	}
}

// watch polls the session until the run finishes, printing each newly
// revealed waypoint and subtitle change along the way.
func watch(orch *routegen.Orchestrator, finished <-chan routegen.TransitionEvent) routegen.TransitionEvent {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	seen := 0
	subtitle := ""
	for {
		select {
		case ev := <-finished:
			return ev
		case <-ticker.C:
			snap := orch.Snapshot()
			if snap.Subtitle != subtitle && snap.Subtitle != "" {
				subtitle = snap.Subtitle
				fmt.Printf("   %s\n", subtitle)
			}
			for ; seen < len(snap.Waypoints); seen++ {
				wp := snap.Waypoints[seen]
				fmt.Printf(" * %-28s (%s) at %.4f, %.4f\n",
					wp.Name, wp.Category, wp.Location.Lat, wp.Location.Lon)
			}
		}
	}
}

func printItinerary(snap routegen.Snapshot) {
	fmt.Printf("\nRoute ready: %d waypoints, %d path points\n", len(snap.Waypoints), len(snap.Path))
	if it := snap.Itinerary; it != nil {
		fmt.Printf("Trip ID:   %s\n", it.TripID)
		fmt.Printf("Generated: %s\n", it.GeneratedAt.Format(time.RFC3339))
		fmt.Printf("Polyline:  %s\n", it.RoutePolyline)
		fmt.Printf("Plan:      %s\n", it.Plan)
	}
}
