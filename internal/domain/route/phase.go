package route

import "fmt"

// Phase represents the current state of a route generation session in its lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// validTransitions defines the state machine for route generation phases.
// The only way backwards is retry: failed -> idle, which immediately
// re-enters loading.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:      {PhaseLoading},
	PhaseLoading:   {PhaseCompleted, PhaseFailed},
	PhaseCompleted: {},
	PhaseFailed:    {PhaseIdle},
}

// IsValid returns true if the phase is a recognized session phase.
func (p Phase) IsValid() bool {
	_, exists := validTransitions[p]
	return exists
}

// CanTransitionTo returns true if a transition from this phase to the target is allowed.
func (p Phase) CanTransitionTo(target Phase) bool {
	allowed, exists := validTransitions[p]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this phase.
func (p Phase) IsTerminal() bool {
	allowed, exists := validTransitions[p]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanRetry returns true if a session in this phase accepts a retry command.
func (p Phase) CanRetry() bool {
	return p.CanTransitionTo(PhaseIdle)
}

// IsFinished returns true once a run has an outcome. A failed session is
// finished but still accepts a retry.
func (p Phase) IsFinished() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase converts a string to a Phase, returning an error if invalid.
func ParsePhase(s string) (Phase, error) {
	phase := Phase(s)
	if !phase.IsValid() {
		return "", fmt.Errorf("invalid session phase: %s", s)
	}
	return phase, nil
}
