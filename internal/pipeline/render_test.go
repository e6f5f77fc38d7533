package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/semsolver/internal/model"
)

func TestFormatText_Solved(t *testing.T) {
	r := &model.Report{
		Clue:      "Capital of France",
		Structure: "[5]",
		Outcome:   model.OutcomeSolved,
		Solutions: []model.RankedSolution{
			{Text: "Paris", Score: 1, Confidence: 100},
			{Text: "Lyons", Score: 0.25, Confidence: 25},
		},
		Elapsed: 2500 * time.Millisecond,
	}

	want := "Solutions to the clue \"Capital of France [5]\":\n" +
		"Paris (confidence level: 100%)\n" +
		"Lyons (confidence level: 25%)\n" +
		"Time taken to process this clue: 2s\n"
	if got := FormatText(r); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestRenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	r := &model.Report{Clue: "Capital of France", Structure: "[5]", Outcome: model.OutcomeSolved}

	if err := RenderJSON(r, path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Outcome != model.OutcomeSolved || decoded.Clue != r.Clue {
		t.Errorf("unexpected decoded report %+v", decoded)
	}
}
