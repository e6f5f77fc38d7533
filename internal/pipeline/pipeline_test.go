package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/extract"
	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/kb"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/recognize"
	"github.com/ppiankov/semsolver/internal/score"
	"github.com/ppiankov/semsolver/internal/sparql"
	"github.com/ppiankov/semsolver/internal/sparql/sparqltest"
	"github.com/ppiankov/semsolver/internal/validate"
	"github.com/ppiankov/semsolver/internal/vocab"
)

var (
	france     = graph.MustIRI(vocab.DBR + "France")
	hasCapital = graph.MustIRI(vocab.POP + "hasCapital")
)

func ontology() *graph.Reasoner {
	return graph.BindSchema(graph.FromTriples([]rdf.Triple{
		{Subj: hasCapital, Pred: graph.SubPropertyOfIRI, Obj: graph.MustIRI(vocab.RelationalProperty)},
		{Subj: hasCapital, Pred: graph.LabelIRI, Obj: graph.Literal("Capital Of", "en")},
	}))
}

// endpoint answers the France lookup and returns capital for its neighbourhood.
func endpoint(capital string) *sparqltest.Client {
	return sparqltest.New().
		OnSelect(sparqltest.Rule{
			Match: []string{`"France"@en`},
			Rows:  []sparql.Binding{{"resource": france}},
		}).
		OnConstruct(sparqltest.Rule{
			Match: []string{"<" + france.String() + "> ?predicate ?object"},
			Graph: graph.FromTriples([]rdf.Triple{
				{Subj: france, Pred: hasCapital, Obj: graph.Literal(capital, "en")},
			}),
		})
}

type recorder struct {
	mu      sync.Mutex
	states  []State
	reports []*model.Report
	ready   int
}

func (r *recorder) Progress(state State, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 || r.states[len(r.states)-1] != state {
		r.states = append(r.states, state)
	}
}

func (r *recorder) Result(report *model.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *recorder) Ready() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready++
}

func newPipeline(t *testing.T, client sparql.Client, store KnowledgeBase, obs Observer) *Pipeline {
	t.Helper()
	reasoner := ontology()
	return New(Components{
		Recognizer:    recognize.New(client, recognize.DefaultOptions()),
		Extractor:     extract.New(client, reasoner, "en"),
		Filter:        validate.NewFilter("en"),
		Scorer:        score.New(client, reasoner, 2),
		KnowledgeBase: store,
		Observer:      obs,
	}, Options{Timeouts: model.TimeoutsConfig{
		Recognition: 5 * time.Second,
		Extraction:  5 * time.Second,
		Scoring:     5 * time.Second,
	}})
}

func openStore(t *testing.T) *kb.Store {
	t.Helper()
	s := kb.Open(context.Background(), filepath.Join(t.TempDir(), "kb.nt"), kb.Options{})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSolve_CapitalOfFrance(t *testing.T) {
	store := openStore(t)
	obs := &recorder{}
	p := newPipeline(t, endpoint("Paris"), store, obs)

	res, err := p.Solve(context.Background(), "Capital of France [5]")
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	report := res.Report
	if report.Outcome != model.OutcomeSolved {
		t.Fatalf("expected solved, got %s (%s)", report.Outcome, report.Error)
	}
	if len(report.Recognized) != 1 || report.Recognized[0].URI != france.String() {
		t.Errorf("expected France to be recognised, got %+v", report.Recognized)
	}
	if len(report.Solutions) != 1 || report.Solutions[0].Text != "Paris" {
		t.Fatalf("expected [Paris], got %+v", report.Solutions)
	}
	if s := report.Solutions[0]; s.Score <= 0 || s.Score > 1 || s.Confidence != 100 {
		t.Errorf("expected score in (0,1] with confidence 100, got %+v", s)
	}

	if res.Persist == nil {
		t.Fatal("expected a pending knowledge base merge")
	}
	if err := res.Persist.Wait(context.Background()); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	rec, found, _ := store.Lookup(context.Background(), "Capital of France", "[5]")
	if !found || !rec.HasSolution("Paris") {
		t.Errorf("expected Paris recorded, got %+v found=%v", rec, found)
	}

	if obs.ready != 1 || len(obs.reports) != 1 {
		t.Errorf("expected one result and one ready, got %d / %d", len(obs.reports), obs.ready)
	}
	want := []State{StateRecognizingEntities, StateExtractingCandidates, StateFiltering, StateScoring, StateRanking, StatePersistingAsync, StateDone}
	if len(obs.states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, obs.states)
	}
	for i := range want {
		if obs.states[i] != want[i] {
			t.Errorf("state %d: expected %s, got %s", i, want[i], obs.states[i])
		}
	}
}

func TestSolve_ScoringDeadlineKeepsUnscored(t *testing.T) {
	paris := graph.MustIRI(vocab.DBR + "Paris")
	client := sparqltest.New().
		OnSelect(sparqltest.Rule{
			Match: []string{`"France"@en`},
			Rows:  []sparql.Binding{{"resource": france}},
		}).
		OnConstruct(sparqltest.Rule{
			Match: []string{"<" + france.String() + "> ?predicate ?object"},
			Graph: graph.FromTriples([]rdf.Triple{
				{Subj: france, Pred: hasCapital, Obj: paris},
				{Subj: paris, Pred: graph.LabelIRI, Obj: graph.Literal("Paris", "en")},
			}),
		}).
		OnCount(sparqltest.Rule{Block: true})

	store := openStore(t)
	p := newPipeline(t, client, store, nil)
	p.opts.Timeouts.Scoring = 50 * time.Millisecond

	res, err := p.Solve(context.Background(), "Capital of France [5]")
	if err != nil {
		t.Fatalf("expected the scoring deadline to be absorbed, got %v", err)
	}
	report := res.Report
	if report.Outcome != model.OutcomeSolved {
		t.Fatalf("expected solved, got %s (%s)", report.Outcome, report.Error)
	}
	if len(report.Solutions) != 1 || report.Solutions[0].Text != "Paris" {
		t.Fatalf("expected [Paris], got %+v", report.Solutions)
	}
	if s := report.Solutions[0]; s.Score != 0 || s.Confidence != 0 {
		t.Errorf("expected an unscored solution, got %+v", s)
	}
	if strings.Contains(FormatText(report), "100%") {
		t.Errorf("unexpected full confidence in %q", FormatText(report))
	}

	if res.Persist != nil {
		if err := res.Persist.Wait(context.Background()); err != nil {
			t.Fatalf("merge failed: %v", err)
		}
	}
	if _, found, _ := store.Lookup(context.Background(), "Capital of France", "[5]"); found {
		t.Error("expected an unscored solution not to be recorded")
	}
}

func TestSolve_ReportsPreviousSolutions(t *testing.T) {
	store := openStore(t)
	p := newPipeline(t, endpoint("Paris"), store, nil)

	first, err := p.Solve(context.Background(), "Capital of France [5]")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Persist.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	second, err := p.Solve(context.Background(), "Capital of France [5]")
	if err != nil {
		t.Fatal(err)
	}
	if got := second.Report.Previous; len(got) != 1 || got[0] != "Paris" {
		t.Errorf("expected previous [Paris], got %v", got)
	}
	if !strings.Contains(FormatText(second.Report), "Previously recorded solutions: Paris") {
		t.Errorf("expected previous solutions line, got %q", FormatText(second.Report))
	}
}

func TestSolve_NoEntities(t *testing.T) {
	client := sparqltest.New()
	obs := &recorder{}
	p := newPipeline(t, client, nil, obs)

	res, err := p.Solve(context.Background(), "Capital of Atlantis [5]")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Report.Outcome != model.OutcomeNoEntities {
		t.Errorf("expected no_entities, got %s", res.Report.Outcome)
	}
	if got := FormatText(res.Report); got != "No solutions found\n" {
		t.Errorf("unexpected text %q", got)
	}
	if n := client.QueriesContaining("CONSTRUCT"); n != 0 {
		t.Errorf("expected no extraction queries, got %d", n)
	}
	if n := client.QueriesContaining("COUNT"); n != 0 {
		t.Errorf("expected no scoring queries, got %d", n)
	}
	if res.Persist != nil {
		t.Error("expected nothing handed to the knowledge base")
	}
	if obs.ready != 1 {
		t.Errorf("expected Ready once, got %d", obs.ready)
	}
}

func TestSolve_NoSolutions(t *testing.T) {
	client := endpoint("Lyon")
	p := newPipeline(t, client, nil, nil)

	res, err := p.Solve(context.Background(), "Capital of France [5]")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Report.Outcome != model.OutcomeNoSolutions {
		t.Fatalf("expected no_solutions, got %s", res.Report.Outcome)
	}
	if res.Report.BestEffort != "Lyon" {
		t.Errorf("expected best effort Lyon, got %q", res.Report.BestEffort)
	}
	want := `No solutions found: "Capital of France" [5]` + "\n"
	if got := FormatText(res.Report); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if n := client.QueriesContaining("COUNT"); n != 0 {
		t.Errorf("expected no scoring queries, got %d", n)
	}
}

func TestSolve_ExtractionFailure(t *testing.T) {
	client := sparqltest.New().
		OnSelect(sparqltest.Rule{
			Match: []string{`"France"@en`},
			Rows:  []sparql.Binding{{"resource": france}},
		}).
		OnConstruct(sparqltest.Rule{Err: errors.New("502 Bad Gateway")})
	obs := &recorder{}
	p := newPipeline(t, client, nil, obs)

	res, err := p.Solve(context.Background(), "Capital of France [5]")
	if !errors.Is(err, extract.ErrNothingFetched) {
		t.Fatalf("expected ErrNothingFetched, got %v", err)
	}
	if res == nil || res.Report.Outcome != model.OutcomeFailed || res.Report.Error == "" {
		t.Fatalf("expected a failed report, got %+v", res)
	}
	if obs.ready != 1 {
		t.Errorf("expected Ready once, got %d", obs.ready)
	}
	if !strings.HasPrefix(FormatText(res.Report), `Failed to solve the clue "Capital of France [5]"`) {
		t.Errorf("unexpected text %q", FormatText(res.Report))
	}
}

func TestSolve_InvalidClue(t *testing.T) {
	obs := &recorder{}
	p := newPipeline(t, sparqltest.New(), nil, obs)

	if _, err := p.Solve(context.Background(), "Capital of France"); !errors.Is(err, model.ErrInvalidClue) {
		t.Errorf("expected ErrInvalidClue, got %v", err)
	}
	if obs.ready != 1 {
		t.Errorf("expected Ready once, got %d", obs.ready)
	}
}

func TestSolve_Cancelled(t *testing.T) {
	p := newPipeline(t, endpoint("Paris"), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Solve(ctx, "Capital of France [5]"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSolveClue(t *testing.T) {
	p := newPipeline(t, endpoint("Paris"), nil, nil)
	report, err := p.SolveClue(context.Background(), "Capital of France [5]")
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != model.OutcomeSolved {
		t.Errorf("expected solved, got %s", report.Outcome)
	}
}

func TestRank(t *testing.T) {
	mk := func(text string, score float64) *model.Solution {
		s := model.NewSolution(text)
		s.Score = score
		return s
	}
	got := rank([]*model.Solution{mk("Lyon", 0.25), mk("Paris", 0.5), mk("Lyon", 0.75), mk("Nice", 0.5)})

	want := []string{"Lyon", "Paris", "Nice"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %+v", want, got)
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("rank %d: expected %s, got %s", i, want[i], got[i].Text)
		}
	}
	if got[0].Confidence != 75 {
		t.Errorf("expected confidence 75, got %d", got[0].Confidence)
	}
}

func TestState_String(t *testing.T) {
	if StateRecognizingEntities.String() != "recognizing entities" {
		t.Errorf("unexpected name %q", StateRecognizingEntities.String())
	}
	if State(99).String() != "unknown" {
		t.Errorf("expected unknown for out of range state")
	}
	if !StateNoEntities.Terminal() || StateScoring.Terminal() {
		t.Error("unexpected terminal classification")
	}
}
