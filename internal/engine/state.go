package engine

// State is a step in the favicon fetch state machine.
type State int

const (
	StateTryCandidates State = iota
	StateTryDefault
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateTryCandidates:
		return "try_candidates"
	case StateTryDefault:
		return "try_default"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// Event is the outcome of running the attempts belonging to a state.
type Event int

const (
	// EventDownloaded means one of the state's URLs produced an icon.
	EventDownloaded Event = iota
	// EventExhausted means every URL of the state failed, or there were none.
	EventExhausted
)

func (e Event) String() string {
	switch e {
	case EventDownloaded:
		return "downloaded"
	case EventExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Next is the transition function. Terminal states absorb every event.
func Next(s State, ev Event) State {
	switch s {
	case StateTryCandidates:
		if ev == EventDownloaded {
			return StateSuccess
		}
		return StateTryDefault
	case StateTryDefault:
		if ev == EventDownloaded {
			return StateSuccess
		}
		return StateFailure
	default:
		return s
	}
}
