package pipeline

import "take-my-dictation/internal/app/model"

// State is a step of a single request's lifecycle.
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StatePreprocessing
	StateAttempting
	StateEvaluating
	StateAccepted
	StateExhaustedFallback
	StateFailed
	StateInvalidAudio
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateAnalyzing:         "analyzing",
	StatePreprocessing:     "preprocessing",
	StateAttempting:        "attempting",
	StateEvaluating:        "evaluating",
	StateAccepted:          "accepted",
	StateExhaustedFallback: "exhausted_fallback",
	StateFailed:            "failed",
	StateInvalidAudio:      "invalid_audio",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StateAccepted, StateExhaustedFallback, StateFailed, StateInvalidAudio:
		return true
	}
	return false
}

var transitions = map[State][]State{
	StateIdle:          {StateAnalyzing},
	StateAnalyzing:     {StatePreprocessing, StateInvalidAudio, StateFailed},
	StatePreprocessing: {StateAttempting, StateInvalidAudio, StateFailed},
	StateAttempting:    {StateEvaluating, StateInvalidAudio, StateFailed},
	StateEvaluating:    {StateAttempting, StateAccepted, StateExhaustedFallback, StateFailed},
}

// CanTransition reports whether to may directly follow from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func stateForOutcome(o model.Outcome) State {
	switch o {
	case model.OutcomeAccepted:
		return StateAccepted
	case model.OutcomeExhaustedFallback:
		return StateExhaustedFallback
	default:
		return StateFailed
	}
}
