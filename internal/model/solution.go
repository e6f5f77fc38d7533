package model

import (
	"math"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/textutil"
)

// RecognizedResource is a graph node matched by one clue fragment.
type RecognizedResource struct {
	URI      string `json:"uri"`
	Fragment string `json:"fragment"`
}

// RawCandidate is an unvalidated answer string with its provenance.
type RawCandidate struct {
	Text string

	// Resource is the node the text was read from. Empty for literals.
	Resource string

	// ClueResource is the recognised node whose neighbourhood produced it.
	ClueResource string

	// Snapshot is the inference graph the candidate was found in.
	Snapshot *graph.Graph
}

// Solution is a candidate whose structure has been derived.
type Solution struct {
	Text             string
	Structure        []int
	Clue             *Clue
	ClueResource     string
	SolutionResource string
	Score            float64

	// Snapshot is held for scoring only; see ReleaseSnapshot.
	Snapshot *graph.Graph
}

// NewSolution derives the word structure of text.
func NewSolution(text string) *Solution {
	return &Solution{
		Text:      text,
		Structure: textutil.Structure(text),
	}
}

// Confidence is the score as a whole percentage.
func (s *Solution) Confidence() int {
	return int(math.Round(s.Score * 100))
}

// ReleaseSnapshot drops the inference graph once scoring is done.
func (s *Solution) ReleaseSnapshot() {
	s.Snapshot = nil
}
