package model

import "time"

// Outcome classifies how a solve ended.
type Outcome string

const (
	OutcomeSolved      Outcome = "solved"
	OutcomeNoEntities  Outcome = "no_entities"  // Nothing recognised in the clue
	OutcomeNoSolutions Outcome = "no_solutions" // Candidates found, none fit the structure
	OutcomeFailed      Outcome = "failed"       // Hard failure during extraction
)

// Report is the result of one clue solve.
type Report struct {
	Clue      string    `json:"clue"`
	Structure string    `json:"structure"`
	Outcome   Outcome   `json:"outcome"`
	SolvedAt  time.Time `json:"solved_at"`

	Recognized []RecognizedResource `json:"recognized,omitempty"`
	Solutions  []RankedSolution     `json:"solutions,omitempty"`

	// BestEffort is the first raw candidate seen, regardless of structure.
	BestEffort string `json:"best_effort,omitempty"`

	// Previous lists answers recorded for this clue by earlier solves.
	Previous []string `json:"previous,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
	Error   string        `json:"error,omitempty"`
}

// RankedSolution is one line of the final answer list.
type RankedSolution struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Confidence int     `json:"confidence"` // Percentage, round(score*100)
	Resource   string  `json:"resource,omitempty"`
}
