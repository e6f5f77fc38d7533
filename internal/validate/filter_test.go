package validate

import (
	"testing"

	"github.com/ppiankov/semsolver/internal/model"
)

func candidates(texts ...string) []model.RawCandidate {
	out := make([]model.RawCandidate, len(texts))
	for i, t := range texts {
		out[i] = model.RawCandidate{Text: t, ClueResource: "http://dbpedia.org/resource/France"}
	}
	return out
}

func mustClue(t *testing.T, raw string) *model.Clue {
	t.Helper()
	c, err := model.ParseClue(raw)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFilter_StructureMatch(t *testing.T) {
	f := NewFilter("en")
	out := f.Apply(mustClue(t, "Capital of France [5]"), candidates("Paris@en", "Lyon", "Marseille"))

	if len(out.Solutions) != 1 || out.Solutions[0].Text != "Paris" {
		t.Fatalf("Expected only Paris to survive, got %+v", out.Solutions)
	}
	s := out.Solutions[0]
	if s.ClueResource != "http://dbpedia.org/resource/France" || s.Clue == nil {
		t.Errorf("Expected provenance to be carried over, got %+v", s)
	}
}

func TestFilter_DropsForeignLanguage(t *testing.T) {
	f := NewFilter("en")
	out := f.Apply(mustClue(t, "Capital of France [5]"), candidates("Parys@af", "Paris@en"))

	if len(out.Solutions) != 1 || out.Solutions[0].Text != "Paris" {
		t.Errorf("Expected foreign label to be dropped, got %+v", out.Solutions)
	}
	if out.BestEffort != "Parys" {
		t.Errorf("Expected best effort to be the first candidate regardless of language, got %q", out.BestEffort)
	}
}

func TestFilter_DeduplicatesText(t *testing.T) {
	f := NewFilter("en")
	out := f.Apply(mustClue(t, "Capital of France [5]"), candidates("Paris", "Paris", "Paris@en"))

	if len(out.Solutions) != 1 {
		t.Errorf("Expected one Paris solution, got %d", len(out.Solutions))
	}
}

func TestFilter_MultiWord(t *testing.T) {
	f := NewFilter("en")
	out := f.Apply(mustClue(t, "Indian capital [3, 5]"), candidates("New Delhi", "Delhi New", "Newdelhi"))

	if len(out.Solutions) != 1 || out.Solutions[0].Text != "New Delhi" {
		t.Errorf("Expected only New Delhi, got %+v", out.Solutions)
	}
}

func TestFilter_NoSurvivors(t *testing.T) {
	f := NewFilter("en")
	out := f.Apply(mustClue(t, "Capital of France [5]"), candidates("Marseille"))

	if len(out.Solutions) != 0 {
		t.Errorf("Expected no solutions, got %+v", out.Solutions)
	}
	if out.BestEffort != "Marseille" {
		t.Errorf("Expected best effort Marseille, got %q", out.BestEffort)
	}
}

func TestFilter_Empty(t *testing.T) {
	out := NewFilter("").Apply(mustClue(t, "Capital of France [5]"), nil)
	if len(out.Solutions) != 0 || out.BestEffort != "" {
		t.Errorf("Expected empty outcome, got %+v", out)
	}
}
