package routegen

import (
	"time"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/animation"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
)

// runState holds the animation progress of one generation. It is confined
// to the run goroutine and never shared; readers get copies via snapshot.
type runState struct {
	pending  []route.Waypoint
	revealed []route.Waypoint
	path     []route.Coordinate

	subtitles          []string
	finalizingSubtitle string
	subtitleIdx        int
	subtitle           string
	pinned             bool
}

func newRunState(cfg Config, stops []route.Waypoint) *runState {
	return &runState{
		pending:            stops,
		revealed:           make([]route.Waypoint, 0, len(stops)),
		path:               make([]route.Coordinate, 0, len(stops)),
		subtitles:          cfg.Subtitles,
		finalizingSubtitle: cfg.FinalizingSubtitle,
		subtitle:           cfg.Subtitles[0],
	}
}

// apply advances the state for one tick. Once a finalizing tick arrives the
// subtitle pins and rotation stops for the rest of the run.
func (s *runState) apply(t animation.Tick) {
	if t.Finalizing && !s.pinned {
		s.pinned = true
		s.subtitle = s.finalizingSubtitle
	}
	switch t.Kind {
	case animation.TickReveal:
		s.reveal()
	case animation.TickSubtitle:
		if !s.pinned {
			s.subtitleIdx = (s.subtitleIdx + 1) % len(s.subtitles)
			s.subtitle = s.subtitles[s.subtitleIdx]
		}
	}
}

// reveal moves the next pending waypoint onto the map and extends the path.
func (s *runState) reveal() {
	if len(s.pending) == 0 {
		return
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.revealed = append(s.revealed, next)
	s.path = append(s.path, next.Location)
}

func (s *runState) pendingCount() int {
	return len(s.pending)
}

// snapshot copies the progress into a value safe to hand to readers.
func (s *runState) snapshot(phase route.Phase, startedAt time.Time, attempt int) Snapshot {
	wps := make([]route.Waypoint, len(s.revealed))
	copy(wps, s.revealed)
	path := make([]route.Coordinate, len(s.path))
	copy(path, s.path)
	return Snapshot{
		Phase:     phase,
		Waypoints: wps,
		Path:      path,
		Subtitle:  s.subtitle,
		StartedAt: startedAt,
		Attempt:   attempt,
	}
}
