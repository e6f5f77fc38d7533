// Package validate turns raw candidates into structurally valid solutions.
package validate

import (
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/textutil"
)

// Filter is the solution filtering phase.
type Filter struct {
	language string
}

// NewFilter creates a filter keeping untagged text and text tagged lang.
func NewFilter(lang string) *Filter {
	if lang == "" {
		lang = "en"
	}
	return &Filter{language: lang}
}

// Outcome is the result of one Filter run.
type Outcome struct {
	Solutions []*model.Solution

	// BestEffort is the first candidate seen before any filtering.
	BestEffort string
}

// Apply validates candidates in order. The returned solutions keep the
// candidate's provenance and snapshot; an empty list signals the no-solutions
// outcome.
func (f *Filter) Apply(clue *model.Clue, candidates []model.RawCandidate) Outcome {
	var out Outcome
	seen := make(map[string]bool)

	for i, c := range candidates {
		if i == 0 {
			out.BestEffort = textutil.StripLanguageTag(c.Text)
		}
		if textutil.HasForeignTag(c.Text, f.language) {
			continue
		}

		s := model.NewSolution(textutil.StripLanguageTag(c.Text))
		s.Clue = clue
		s.ClueResource = c.ClueResource
		s.SolutionResource = c.Resource
		s.Snapshot = c.Snapshot

		if seen[s.Text] || !wellFormed(s) || !clue.MatchesStructure(s) {
			continue
		}
		seen[s.Text] = true
		out.Solutions = append(out.Solutions, s)
	}
	return out
}

// wellFormed is a hook for answer sanity checks. Any non-empty text passes.
func wellFormed(s *model.Solution) bool {
	return s.Text != ""
}
