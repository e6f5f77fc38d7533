package pipeline

import "github.com/ppiankov/semsolver/internal/model"

// State is a step of one clue solve.
type State int

const (
	StateIdle State = iota
	StateRecognizingEntities
	StateNoEntities
	StateExtractingCandidates
	StateNoCandidates
	StateFiltering
	StateNoSolutions
	StateScoring
	StateRanking
	StatePersistingAsync
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                 "idle",
	StateRecognizingEntities:  "recognizing entities",
	StateNoEntities:           "no entities",
	StateExtractingCandidates: "extracting candidates",
	StateNoCandidates:         "no candidates",
	StateFiltering:            "filtering",
	StateNoSolutions:          "no solutions",
	StateScoring:              "scoring",
	StateRanking:              "ranking",
	StatePersistingAsync:      "persisting",
	StateDone:                 "done",
	StateFailed:               "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateNoEntities, StateNoCandidates, StateNoSolutions, StateDone, StateFailed:
		return true
	}
	return false
}

// Observer receives progress of a solve. Ready is called exactly once, after
// Result, when the solve reaches a terminal state.
type Observer interface {
	Progress(state State, percent int)
	Result(report *model.Report)
	Ready()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Progress(State, int)  {}
func (NopObserver) Result(*model.Report) {}
func (NopObserver) Ready()               {}
