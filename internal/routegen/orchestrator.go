// Package routegen runs the lifecycle of a single route generation session:
// idle, loading with staged waypoint reveals, then completed or failed, with
// retry returning a failed session to the start. One goroutine owns each run
// and every mutation funnels through it, so readers only ever see consistent
// snapshots.
package routegen

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/animation"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
)

// Pacing defaults. A run stays visible for at least the minimum window even
// when the planner answers instantly, and pending waypoints flush at the
// fast-forward cadence once the result is in.
const (
	DefaultMinVisible          = 3 * time.Second
	DefaultFastForwardInterval = 100 * time.Millisecond
)

var defaultSubtitles = []string{
	"Mapping out your route...",
	"Scouting highlights nearby...",
	"Checking opening hours...",
	"Balancing out your days...",
}

const defaultFinalizingSubtitle = "Finalizing your itinerary..."

// Config tunes the pacing of a session. Zero values fall back to the
// defaults above and to the animation package cadences.
type Config struct {
	MinVisible       time.Duration
	RevealEvery      time.Duration
	SubtitleEvery    time.Duration
	FinalizeAfter    time.Duration
	FastForwardEvery time.Duration

	Subtitles          []string
	FinalizingSubtitle string
}

func (c Config) withDefaults() Config {
	if c.MinVisible <= 0 {
		c.MinVisible = DefaultMinVisible
	}
	if c.RevealEvery <= 0 {
		c.RevealEvery = animation.DefaultRevealInterval
	}
	if c.SubtitleEvery <= 0 {
		c.SubtitleEvery = animation.DefaultSubtitleInterval
	}
	if c.FinalizeAfter <= 0 {
		c.FinalizeAfter = animation.DefaultFinalizeAfter
	}
	if c.FastForwardEvery <= 0 {
		c.FastForwardEvery = DefaultFastForwardInterval
	}
	if len(c.Subtitles) == 0 {
		c.Subtitles = defaultSubtitles
	}
	if c.FinalizingSubtitle == "" {
		c.FinalizingSubtitle = defaultFinalizingSubtitle
	}
	return c
}

// Request describes what a session should generate a route for. Either
// TripID references an existing trip draft, or Payload carries enough to
// create one. Center anchors the demo waypoints; when zero it falls back to
// the payload center and then the default demo center.
type Request struct {
	TripID  string
	Payload *route.TripPayload
	Center  route.Coordinate
}

// Snapshot is a point-in-time copy of a session for readers. Slices are
// owned by the caller; Itinerary is shared but never mutated after the
// planner returns it.
type Snapshot struct {
	Phase     route.Phase
	Waypoints []route.Waypoint
	Path      []route.Coordinate
	Subtitle  string
	Itinerary *route.Itinerary
	Error     string
	StartedAt time.Time
	Attempt   int
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Waypoints = make([]route.Waypoint, len(s.Waypoints))
	copy(out.Waypoints, s.Waypoints)
	out.Path = make([]route.Coordinate, len(s.Path))
	copy(out.Path, s.Path)
	return out
}

// TransitionEvent describes one phase change, carrying enough context for
// logging, persistence, and event publishing.
type TransitionEvent struct {
	SessionID         uuid.UUID
	TripID            string
	From              route.Phase
	To                route.Phase
	At                time.Time
	Attempt           int
	Elapsed           time.Duration
	WaypointsRevealed int
	Err               string
}

// Observer receives phase changes. Callbacks run on orchestrator goroutines
// outside any lock and should return promptly.
type Observer interface {
	PhaseChanged(ev TransitionEvent)
}

// Orchestrator drives one route generation session. All exported methods are
// safe for concurrent use.
type Orchestrator struct {
	id      uuid.UUID
	req     Request
	planner route.ItineraryPlanner
	cfg     Config
	log     *zap.Logger
	obs     Observer

	mu        sync.Mutex
	phase     route.Phase
	gen       uint64
	cancel    context.CancelFunc
	startedAt time.Time
	attempt   int
	snap      Snapshot
}

// New builds an idle session. Nothing runs until Start.
func New(id uuid.UUID, req Request, planner route.ItineraryPlanner, cfg Config, log *zap.Logger, obs Observer) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		id:      id,
		req:     req,
		planner: planner,
		cfg:     cfg.withDefaults(),
		log:     log.With(zap.String("session_id", id.String())),
		obs:     obs,
		phase:   route.PhaseIdle,
		snap:    Snapshot{Phase: route.PhaseIdle},
	}
}

// ID returns the session identifier.
func (o *Orchestrator) ID() uuid.UUID {
	return o.id
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() route.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Snapshot returns a copy of the current session state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap.clone()
}

// Start moves an idle session into loading and launches the run. Calling it
// in any other phase does nothing, so double taps and re-renders are safe.
// The run derives its lifetime from ctx.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.phase != route.PhaseIdle {
		phase := o.phase
		o.mu.Unlock()
		o.log.Debug("start ignored", zap.String("phase", phase.String()))
		return
	}
	ev, launch := o.beginLocked(ctx)
	o.mu.Unlock()

	o.notify(ev)
	launch()
}

// Retry returns a failed session to idle, clears its progress, and starts a
// fresh run. Any other phase is rejected.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	if !o.phase.CanRetry() {
		from := o.phase
		o.mu.Unlock()
		return route.NewInvalidTransitionError(from, route.PhaseIdle)
	}
	reset := o.eventLocked(o.phase, route.PhaseIdle, "")
	o.phase = route.PhaseIdle
	o.snap = Snapshot{Phase: route.PhaseIdle, StartedAt: o.startedAt, Attempt: o.attempt}
	ev, launch := o.beginLocked(ctx)
	o.mu.Unlock()

	o.notify(reset, ev)
	launch()
	return nil
}

// Cancel abandons the in-flight run. The session never reaches a terminal
// phase afterwards: the generation bump makes any late planner result or
// tick a no-op.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.gen++
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.log.Debug("session cancelled")
}

// beginLocked performs the transition into loading and prepares the run
// goroutine. The caller launches it after releasing the lock so observers
// always see the loading event before any terminal one.
func (o *Orchestrator) beginLocked(ctx context.Context) (TransitionEvent, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.gen++
	o.attempt++
	now := time.Now()
	o.startedAt = now

	from := o.phase
	o.phase = route.PhaseLoading
	o.snap = Snapshot{
		Phase:     route.PhaseLoading,
		Waypoints: []route.Waypoint{},
		Path:      []route.Coordinate{},
		Subtitle:  o.cfg.Subtitles[0],
		StartedAt: now,
		Attempt:   o.attempt,
	}

	ev := TransitionEvent{
		SessionID: o.id,
		TripID:    o.req.TripID,
		From:      from,
		To:        route.PhaseLoading,
		At:        now,
		Attempt:   o.attempt,
	}
	gen, attempt := o.gen, o.attempt
	return ev, func() {
		go o.run(runCtx, gen, now, attempt)
	}
}

type fetchResult struct {
	itinerary *route.Itinerary
	err       error
}

// run owns all animation state for one generation. It multiplexes clock
// ticks, the planner result, and cancellation; nothing else touches the
// runState.
func (o *Orchestrator) run(ctx context.Context, gen uint64, startedAt time.Time, attempt int) {
	clock := animation.Start(animation.Config{
		RevealEvery:   o.cfg.RevealEvery,
		SubtitleEvery: o.cfg.SubtitleEvery,
		FinalizeAfter: o.cfg.FinalizeAfter,
	})
	defer clock.Stop()

	results := make(chan fetchResult, 1)
	go o.fetch(ctx, results)

	st := newRunState(o.cfg, route.DemoWaypoints(o.center()))

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-clock.Ticks():
			st.apply(tick)
			o.publish(gen, st.snapshot(route.PhaseLoading, startedAt, attempt))
		case res := <-results:
			if ctx.Err() != nil {
				return
			}
			if res.err != nil {
				o.finishFailed(gen, st, startedAt, res.err)
				return
			}
			if !o.awaitFloor(ctx, clock, st, gen, startedAt, attempt) {
				return
			}
			clock.Stop()
			if !o.fastForward(ctx, st, gen, startedAt, attempt) {
				return
			}
			o.finishCompleted(gen, st, res.itinerary, startedAt)
			return
		}
	}
}

func (o *Orchestrator) fetch(ctx context.Context, results chan<- fetchResult) {
	var (
		it  *route.Itinerary
		err error
	)
	switch {
	case o.req.TripID != "":
		it, err = o.planner.FetchDraft(ctx, o.req.TripID)
	case o.req.Payload != nil:
		it, err = o.planner.CreateAndFetch(ctx, *o.req.Payload)
	default:
		err = route.NewValidationError("route request needs a trip id or a trip payload")
	}
	results <- fetchResult{itinerary: it, err: err}
}

// awaitFloor keeps the loading animation running until the minimum visible
// window has elapsed. Returns false when the run was cancelled.
func (o *Orchestrator) awaitFloor(ctx context.Context, clock *animation.Clock, st *runState, gen uint64, startedAt time.Time, attempt int) bool {
	remaining := o.cfg.MinVisible - time.Since(startedAt)
	if remaining <= 0 {
		return true
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case tick := <-clock.Ticks():
			st.apply(tick)
			o.publish(gen, st.snapshot(route.PhaseLoading, startedAt, attempt))
		}
	}
}

// fastForward flushes the remaining waypoints at an accelerated cadence so
// the map fills out before the session completes. Returns false when the run
// was cancelled.
func (o *Orchestrator) fastForward(ctx context.Context, st *runState, gen uint64, startedAt time.Time, attempt int) bool {
	for st.pendingCount() > 0 {
		st.reveal()
		o.publish(gen, st.snapshot(route.PhaseLoading, startedAt, attempt))
		if st.pendingCount() == 0 {
			break
		}
		timer := time.NewTimer(o.cfg.FastForwardEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
	return true
}

// publish installs a fresh loading snapshot unless the run is stale.
func (o *Orchestrator) publish(gen uint64, snap Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen || o.phase != route.PhaseLoading {
		return
	}
	o.snap = snap
}

func (o *Orchestrator) finishCompleted(gen uint64, st *runState, it *route.Itinerary, startedAt time.Time) {
	o.mu.Lock()
	if o.gen != gen || o.phase != route.PhaseLoading {
		o.mu.Unlock()
		return
	}
	o.phase = route.PhaseCompleted
	snap := st.snapshot(route.PhaseCompleted, startedAt, o.attempt)
	snap.Itinerary = it
	o.snap = snap
	ev := o.eventLocked(route.PhaseLoading, route.PhaseCompleted, "")
	if ev.TripID == "" && it != nil {
		ev.TripID = it.TripID
	}
	o.mu.Unlock()

	o.notify(ev)
}

func (o *Orchestrator) finishFailed(gen uint64, st *runState, startedAt time.Time, cause error) {
	o.mu.Lock()
	if o.gen != gen || o.phase != route.PhaseLoading {
		o.mu.Unlock()
		return
	}
	o.phase = route.PhaseFailed
	snap := st.snapshot(route.PhaseFailed, startedAt, o.attempt)
	snap.Error = cause.Error()
	o.snap = snap
	ev := o.eventLocked(route.PhaseLoading, route.PhaseFailed, cause.Error())
	o.mu.Unlock()

	o.notify(ev)
}

func (o *Orchestrator) eventLocked(from, to route.Phase, errMsg string) TransitionEvent {
	return TransitionEvent{
		SessionID:         o.id,
		TripID:            o.req.TripID,
		From:              from,
		To:                to,
		At:                time.Now(),
		Attempt:           o.attempt,
		Elapsed:           time.Since(o.startedAt),
		WaypointsRevealed: len(o.snap.Waypoints),
		Err:               errMsg,
	}
}

// notify logs transitions and fans them out to the observer outside the
// lock.
func (o *Orchestrator) notify(evs ...TransitionEvent) {
	for _, ev := range evs {
		fields := []zap.Field{
			zap.String("from", ev.From.String()),
			zap.String("to", ev.To.String()),
			zap.Int("attempt", ev.Attempt),
			zap.Duration("elapsed", ev.Elapsed),
			zap.Int("waypoints_revealed", ev.WaypointsRevealed),
		}
		if ev.Err != "" {
			fields = append(fields, zap.String("error", ev.Err))
		}
		o.log.Info("route session phase changed", fields...)
		if o.obs != nil {
			o.obs.PhaseChanged(ev)
		}
	}
}

func (o *Orchestrator) center() route.Coordinate {
	if o.req.Center != (route.Coordinate{}) {
		return o.req.Center
	}
	if o.req.Payload != nil && o.req.Payload.Center != (route.Coordinate{}) {
		return o.req.Payload.Center
	}
	return route.DefaultDemoCenter
}
