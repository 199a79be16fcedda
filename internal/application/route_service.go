// Package application hosts the session service that owns live route
// generation orchestrators and fans their lifecycle out to logs, history,
// and the event bus.
package application

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/events"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/polyline"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/routegen"
)

// StartSessionRequest holds the inline trip payload for payload-mode
// sessions.
type StartSessionRequest struct {
	Destination string           `json:"destination" binding:"required"`
	Center      route.Coordinate `json:"center"`
	Days        int              `json:"days"`
	Interests   []string         `json:"interests"`
}

// SessionDTO is the response representation of a live session snapshot.
type SessionDTO struct {
	ID        uuid.UUID          `json:"id"`
	TripID    string             `json:"trip_id,omitempty"`
	Mode      string             `json:"mode"`
	Phase     string             `json:"phase"`
	Subtitle  string             `json:"subtitle,omitempty"`
	Waypoints []route.Waypoint   `json:"waypoints"`
	Path      []route.Coordinate `json:"path"`
	Itinerary *ItineraryDTO      `json:"itinerary,omitempty"`
	Error     string             `json:"error,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Attempt   int                `json:"attempt"`
}

// ItineraryDTO carries the completed itinerary. RoutePath is the decoded
// form of RoutePolyline so map clients never touch the wire encoding.
type ItineraryDTO struct {
	TripID        string             `json:"trip_id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	RoutePolyline string             `json:"route_polyline"`
	RoutePath     []route.Coordinate `json:"route_path"`
	Plan          json.RawMessage    `json:"plan,omitempty"`
}

// SessionHistoryDTO is the response representation of a history record.
type SessionHistoryDTO struct {
	ID                uuid.UUID  `json:"id"`
	TripID            string     `json:"trip_id,omitempty"`
	Mode              string     `json:"mode"`
	Status            string     `json:"status"`
	Attempt           int        `json:"attempt"`
	WaypointsRevealed int        `json:"waypoints_revealed"`
	Error             string     `json:"error,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	DurationMs        *int64     `json:"duration_ms,omitempty"`
}

// Config tunes the session service.
type Config struct {
	// Source names this service in event envelopes.
	Source string
	// Topic is the lifecycle event topic.
	Topic string
	// MaxActive caps admitted sessions that have not yet finished.
	MaxActive int
	// Session is the pacing applied to every orchestrator.
	Session routegen.Config
}

func (c Config) withDefaults() Config {
	if c.Source == "" {
		c.Source = "service-route"
	}
	if c.Topic == "" {
		c.Topic = events.TopicRouteEvents
	}
	if c.MaxActive <= 0 {
		c.MaxActive = 64
	}
	return c
}

const fanOutTimeout = 5 * time.Second

// Finished sessions stay readable in the live set for this long before the
// reaper evicts them; afterwards GetSession serves the history record.
const liveSessionRetention = 15 * time.Minute

type liveSession struct {
	orch   *routegen.Orchestrator
	mode   route.SessionMode
	tripID string
}

// RouteSessionService owns the live orchestrators and implements
// routegen.Observer to fan their transitions out. History and event
// publishing are optional: a nil repository or producer turns them off.
type RouteSessionService struct {
	lifecycle context.Context
	planner   route.ItineraryPlanner
	repo      route.SessionHistoryRepository
	producer  *events.Producer
	cfg       Config
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*liveSession
}

// NewRouteSessionService creates a new RouteSessionService. Sessions run on
// the lifecycle context, never on request contexts, so a run survives the
// HTTP request that started it.
func NewRouteSessionService(
	lifecycle context.Context,
	planner route.ItineraryPlanner,
	repo route.SessionHistoryRepository,
	producer *events.Producer,
	cfg Config,
	logger *zap.Logger,
) *RouteSessionService {
	s := &RouteSessionService{
		lifecycle: lifecycle,
		planner:   planner,
		repo:      repo,
		producer:  producer,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		sessions:  make(map[uuid.UUID]*liveSession),
	}
	go s.reapLoop()
	return s
}

// reapLoop evicts finished sessions past the retention window so the live
// set stays bounded. It stops with the lifecycle context.
func (s *RouteSessionService) reapLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.lifecycle.Done():
			return
		case <-ticker.C:
			s.reapFinished()
		}
	}
}

func (s *RouteSessionService) reapFinished() {
	s.reapFinishedBefore(time.Now().Add(-liveSessionRetention))
}

func (s *RouteSessionService) reapFinishedBefore(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, live := range s.sessions {
		snap := live.orch.Snapshot()
		if snap.Phase.IsFinished() && snap.StartedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// StartSession starts a payload-mode session: the planner creates a trip
// from the inline payload and generates its route.
func (s *RouteSessionService) StartSession(ctx context.Context, req StartSessionRequest) (*SessionDTO, error) {
	payload := route.TripPayload{
		Destination: req.Destination,
		Center:      req.Center,
		Days:        req.Days,
		Interests:   req.Interests,
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.start(ctx, routegen.Request{Payload: &payload, Center: payload.Center}, route.ModePayload, "")
}

// StartSessionForTrip starts a draft-mode session for an existing trip.
func (s *RouteSessionService) StartSessionForTrip(ctx context.Context, tripID string) (*SessionDTO, error) {
	if tripID == "" {
		return nil, route.NewValidationError("trip id is required")
	}

	return s.start(ctx, routegen.Request{TripID: tripID}, route.ModeDraft, tripID)
}

func (s *RouteSessionService) start(ctx context.Context, req routegen.Request, mode route.SessionMode, tripID string) (*SessionDTO, error) {
	id := uuid.New()
	orch := routegen.New(id, req, s.planner, s.cfg.Session, s.logger, s)

	// Check and reservation share one lock hold: the map entry counts
	// against the cap from this point on, not from the loading transition.
	s.mu.Lock()
	if active := s.unfinishedCountLocked(); active >= s.cfg.MaxActive {
		s.mu.Unlock()
		return nil, route.NewConflictError("too many active route sessions, try again shortly")
	}
	live := &liveSession{orch: orch, mode: mode, tripID: tripID}
	s.sessions[id] = live
	s.mu.Unlock()

	s.saveInitialRecord(ctx, id, live)

	orch.Start(s.lifecycle)

	dto := s.toSessionDTO(id, live)
	return &dto, nil
}

// GetSession returns the live snapshot of a session, falling back to the
// history record once a session has been removed.
func (s *RouteSessionService) GetSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	s.mu.RLock()
	live, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		dto := s.toSessionDTO(id, live)
		return &dto, nil
	}

	if s.repo != nil {
		rec, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		dto := historyToSessionDTO(rec)
		return &dto, nil
	}
	return nil, route.NewNotFoundError("RouteSession", id.String())
}

// RetrySession restarts a failed session.
func (s *RouteSessionService) RetrySession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	s.mu.RLock()
	live, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, route.NewNotFoundError("RouteSession", id.String())
	}

	if err := live.orch.Retry(s.lifecycle); err != nil {
		return nil, err
	}

	dto := s.toSessionDTO(id, live)
	return &dto, nil
}

// CancelSession abandons a session and removes it from the live set. A run
// still in flight is stopped before it reaches an outcome and recorded as
// cancelled; a finished run keeps its recorded outcome.
func (s *RouteSessionService) CancelSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	live, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return route.NewNotFoundError("RouteSession", id.String())
	}

	// Cancel serializes against the run's terminal commit, so the snapshot
	// read afterwards is settled: a run that beat the cancel shows its
	// outcome, a voided one stays in loading.
	live.orch.Cancel()
	snap := live.orch.Snapshot()

	// A session that already finished is only evicted; completed and failed
	// outcomes stay on record.
	if !snap.Phase.IsFinished() {
		s.recordCancelled(id, snap)
		s.publishLifecycleEvent(events.RouteSessionCancelled, routegen.TransitionEvent{
			SessionID:         id,
			TripID:            live.tripID,
			From:              snap.Phase,
			At:                time.Now().UTC(),
			Attempt:           snap.Attempt,
			Elapsed:           time.Since(snap.StartedAt),
			WaypointsRevealed: len(snap.Waypoints),
		})
	}

	s.logger.Info("route session cancelled",
		zap.String("session_id", id.String()),
		zap.String("phase", snap.Phase.String()),
	)
	return nil
}

// --- Admin methods ---

// SessionStatsDTO holds session statistics for the admin surface.
type SessionStatsDTO struct {
	TotalSessions int64            `json:"total_sessions"`
	ByStatus      map[string]int64 `json:"by_status"`
	LiveSessions  int              `json:"live_sessions"`
}

// ListSessions returns a paginated session history, newest first. Without a
// repository it lists the live sessions instead.
func (s *RouteSessionService) ListSessions(ctx context.Context, page, limit int) ([]SessionHistoryDTO, int64, error) {
	if s.repo != nil {
		records, total, err := s.repo.ListRecent(ctx, page, limit)
		if err != nil {
			return nil, 0, err
		}
		dtos := make([]SessionHistoryDTO, len(records))
		for i, rec := range records {
			dtos[i] = toHistoryDTO(rec)
		}
		return dtos, total, nil
	}

	return s.listLive(page, limit)
}

// GetSessionStats returns aggregate session statistics.
func (s *RouteSessionService) GetSessionStats(ctx context.Context) (*SessionStatsDTO, error) {
	s.mu.RLock()
	liveCount := len(s.sessions)
	s.mu.RUnlock()

	if s.repo == nil {
		counts := s.liveCountsByPhase()
		var total int64
		for _, c := range counts {
			total += c
		}
		return &SessionStatsDTO{TotalSessions: total, ByStatus: counts, LiveSessions: liveCount}, nil
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &SessionStatsDTO{TotalSessions: total, ByStatus: counts, LiveSessions: liveCount}, nil
}

// --- Observer fan-out ---

// PhaseChanged implements routegen.Observer: every transition is recorded
// in history and the meaningful ones are published to the bus. Both paths
// are best effort; a broken sink never breaks a running session.
func (s *RouteSessionService) PhaseChanged(ev routegen.TransitionEvent) {
	s.recordTransition(ev)

	if eventType := transitionEventType(ev); eventType != "" {
		s.publishLifecycleEvent(eventType, ev)
	}
}

// transitionEventType maps a transition onto a bus event type. The second
// idle to loading hop of a retry is already covered by the retried event.
func transitionEventType(ev routegen.TransitionEvent) string {
	switch {
	case ev.To == route.PhaseLoading && ev.From == route.PhaseIdle && ev.Attempt == 1:
		return events.RouteSessionStarted
	case ev.To == route.PhaseCompleted:
		return events.RouteSessionCompleted
	case ev.To == route.PhaseFailed:
		return events.RouteSessionFailed
	case ev.To == route.PhaseIdle && ev.From == route.PhaseFailed:
		return events.RouteSessionRetried
	default:
		return ""
	}
}

func (s *RouteSessionService) saveInitialRecord(ctx context.Context, id uuid.UUID, live *liveSession) {
	if s.repo == nil {
		return
	}
	now := time.Now().UTC()
	rec := &route.SessionRecord{
		ID:        id,
		TripID:    live.tripID,
		Mode:      live.mode,
		Status:    route.PhaseIdle.String(),
		Attempt:   0,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Error("failed to save session record",
			zap.String("session_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *RouteSessionService) recordTransition(ev routegen.TransitionEvent) {
	if s.repo == nil {
		return
	}
	rec := &route.SessionRecord{
		ID:                ev.SessionID,
		TripID:            ev.TripID,
		Status:            ev.To.String(),
		Attempt:           ev.Attempt,
		WaypointsRevealed: ev.WaypointsRevealed,
		Error:             ev.Err,
	}
	if ev.To == route.PhaseCompleted || ev.To == route.PhaseFailed {
		finished := ev.At
		ms := ev.Elapsed.Milliseconds()
		rec.FinishedAt = &finished
		rec.DurationMs = &ms
	}

	ctx, cancel := context.WithTimeout(s.lifecycle, fanOutTimeout)
	defer cancel()
	if err := s.repo.Update(ctx, rec); err != nil {
		s.logger.Error("failed to record session transition",
			zap.String("session_id", ev.SessionID.String()),
			zap.String("status", rec.Status),
			zap.Error(err),
		)
	}
}

func (s *RouteSessionService) recordCancelled(id uuid.UUID, snap routegen.Snapshot) {
	if s.repo == nil {
		return
	}
	finished := time.Now().UTC()
	ms := time.Since(snap.StartedAt).Milliseconds()
	rec := &route.SessionRecord{
		ID:                id,
		Status:            route.SessionStatusCancelled,
		Attempt:           snap.Attempt,
		WaypointsRevealed: len(snap.Waypoints),
		FinishedAt:        &finished,
		DurationMs:        &ms,
	}

	ctx, cancel := context.WithTimeout(s.lifecycle, fanOutTimeout)
	defer cancel()
	if err := s.repo.Update(ctx, rec); err != nil {
		s.logger.Error("failed to record session cancellation",
			zap.String("session_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *RouteSessionService) publishLifecycleEvent(eventType string, ev routegen.TransitionEvent) {
	if s.producer == nil {
		return
	}

	payload := events.RouteSessionEvent{
		SessionID:         ev.SessionID,
		TripID:            ev.TripID,
		FromPhase:         ev.From.String(),
		ToPhase:           ev.To.String(),
		Attempt:           ev.Attempt,
		ElapsedMs:         ev.Elapsed.Milliseconds(),
		WaypointsRevealed: ev.WaypointsRevealed,
		Error:             ev.Err,
		OccurredAt:        ev.At.UTC(),
	}

	cloudEvent, err := events.NewCloudEvent(s.cfg.Source, eventType, payload)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(s.lifecycle, fanOutTimeout)
	defer cancel()
	if err := s.producer.PublishEvent(ctx, s.cfg.Topic, ev.SessionID.String(), cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.cfg.Topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// --- Helpers ---

// unfinishedCountLocked counts live sessions that have not reached an
// outcome. An admitted session still reads idle until its run starts, so
// its map entry alone holds a slot.
func (s *RouteSessionService) unfinishedCountLocked() int {
	count := 0
	for _, live := range s.sessions {
		if !live.orch.Phase().IsFinished() {
			count++
		}
	}
	return count
}

func (s *RouteSessionService) liveCountsByPhase() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, live := range s.sessions {
		counts[live.orch.Phase().String()]++
	}
	return counts
}

func (s *RouteSessionService) listLive(page, limit int) ([]SessionHistoryDTO, int64, error) {
	s.mu.RLock()
	dtos := make([]SessionHistoryDTO, 0, len(s.sessions))
	for id, live := range s.sessions {
		snap := live.orch.Snapshot()
		dtos = append(dtos, SessionHistoryDTO{
			ID:                id,
			TripID:            live.tripID,
			Mode:              string(live.mode),
			Status:            snap.Phase.String(),
			Attempt:           snap.Attempt,
			WaypointsRevealed: len(snap.Waypoints),
			Error:             snap.Error,
			StartedAt:         snap.StartedAt,
		})
	}
	s.mu.RUnlock()

	sort.Slice(dtos, func(i, j int) bool {
		return dtos[i].StartedAt.After(dtos[j].StartedAt)
	})

	total := int64(len(dtos))
	start := (page - 1) * limit
	if start >= len(dtos) {
		return []SessionHistoryDTO{}, total, nil
	}
	end := start + limit
	if end > len(dtos) {
		end = len(dtos)
	}
	return dtos[start:end], total, nil
}

func (s *RouteSessionService) toSessionDTO(id uuid.UUID, live *liveSession) SessionDTO {
	snap := live.orch.Snapshot()

	dto := SessionDTO{
		ID:        id,
		TripID:    live.tripID,
		Mode:      string(live.mode),
		Phase:     snap.Phase.String(),
		Subtitle:  snap.Subtitle,
		Waypoints: snap.Waypoints,
		Path:      snap.Path,
		Error:     snap.Error,
		StartedAt: snap.StartedAt,
		Attempt:   snap.Attempt,
	}
	if snap.Itinerary != nil {
		dto.TripID = snap.Itinerary.TripID
		dto.Itinerary = &ItineraryDTO{
			TripID:        snap.Itinerary.TripID,
			GeneratedAt:   snap.Itinerary.GeneratedAt,
			RoutePolyline: snap.Itinerary.RoutePolyline,
			RoutePath:     polyline.Decode(snap.Itinerary.RoutePolyline),
			Plan:          snap.Itinerary.Plan,
		}
	}
	return dto
}

func historyToSessionDTO(rec *route.SessionRecord) SessionDTO {
	return SessionDTO{
		ID:        rec.ID,
		TripID:    rec.TripID,
		Mode:      string(rec.Mode),
		Phase:     rec.Status,
		Waypoints: []route.Waypoint{},
		Path:      []route.Coordinate{},
		Error:     rec.Error,
		StartedAt: rec.StartedAt,
		Attempt:   rec.Attempt,
	}
}

func toHistoryDTO(rec *route.SessionRecord) SessionHistoryDTO {
	return SessionHistoryDTO{
		ID:                rec.ID,
		TripID:            rec.TripID,
		Mode:              string(rec.Mode),
		Status:            rec.Status,
		Attempt:           rec.Attempt,
		WaypointsRevealed: rec.WaypointsRevealed,
		Error:             rec.Error,
		StartedAt:         rec.StartedAt,
		FinishedAt:        rec.FinishedAt,
		DurationMs:        rec.DurationMs,
	}
}
