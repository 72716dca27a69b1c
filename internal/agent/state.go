package agent

// State is the agent's position in its lifecycle. Working states cycle in
// order; Paused and Stopped are entered from any working state.
type State string

const (
	StateIdle        State = "idle"
	StateObserving   State = "observing"
	StateSafetyCheck State = "safety_check"
	StateThinking    State = "thinking"
	StateActing      State = "acting"
	StateReflecting  State = "reflecting"
	StateAdapting    State = "adapting"
	StatePaused      State = "paused"
	StateStopped     State = "stopped"
)

// Working reports whether the state is part of the normal cycle.
func (s State) Working() bool {
	switch s {
	case StateObserving, StateSafetyCheck, StateThinking, StateActing,
		StateReflecting, StateAdapting:
		return true
	}
	return false
}

// Terminal reports whether the agent will run no further cycles.
func (s State) Terminal() bool {
	return s == StateStopped
}
