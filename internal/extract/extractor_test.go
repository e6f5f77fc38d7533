package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/sparql/sparqltest"
	"github.com/ppiankov/semsolver/internal/vocab"
)

var (
	france     = graph.MustIRI(vocab.DBR + "France")
	paris      = graph.MustIRI(vocab.DBR + "Paris")
	hasCapital = graph.MustIRI(vocab.POP + "hasCapital")
	dboCapital = graph.MustIRI(vocab.DBO + "capital")
	dboCountry = graph.MustIRI(vocab.DBO + "country")
)

func popSchema() *graph.Graph {
	return graph.FromTriples([]rdf.Triple{
		{Subj: hasCapital, Pred: graph.SubPropertyOfIRI, Obj: graph.MustIRI(vocab.RelationalProperty)},
		{Subj: hasCapital, Pred: graph.EquivalentPropertyIRI, Obj: dboCapital},
		{Subj: hasCapital, Pred: graph.LabelIRI, Obj: graph.Literal("capital of", "en")},
	})
}

func resources(uris ...string) []model.RecognizedResource {
	out := make([]model.RecognizedResource, len(uris))
	for i, u := range uris {
		out[i] = model.RecognizedResource{URI: u}
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

func TestExtract_LiteralObject(t *testing.T) {
	client := sparqltest.New().OnConstruct(sparqltest.Rule{
		Match: []string{"<" + france.String() + "> ?predicate ?object"},
		Graph: graph.FromTriples([]rdf.Triple{
			{Subj: france, Pred: hasCapital, Obj: graph.Literal("Paris", "en")},
		}),
	})

	x := New(client, graph.BindSchema(popSchema()), "en")
	got, err := x.Extract(context.Background(), mustClue(t, "Capital of France [5]"), resources(france.String()), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "Paris@en" {
		t.Fatalf("Expected raw candidate Paris@en, got %+v", got)
	}
	if got[0].Resource != "" || got[0].ClueResource != france.String() {
		t.Errorf("Unexpected provenance: %+v", got[0])
	}
	if got[0].Snapshot == nil {
		t.Error("Expected inference snapshot on candidate")
	}
}

func TestExtract_ResourceObjectThroughEquivalentProperty(t *testing.T) {
	client := sparqltest.New().OnConstruct(sparqltest.Rule{
		Match: []string{"<" + france.String() + "> ?predicate ?object"},
		Graph: graph.FromTriples([]rdf.Triple{
			{Subj: france, Pred: dboCapital, Obj: paris},
			{Subj: paris, Pred: graph.LabelIRI, Obj: graph.Literal("Paris", "en")},
			{Subj: paris, Pred: graph.LabelIRI, Obj: graph.Literal("Parigi", "it")},
			{Subj: france, Pred: dboCountry, Obj: graph.MustIRI(vocab.DBR + "Europe")},
		}),
	})

	x := New(client, graph.BindSchema(popSchema()), "en")
	got, err := x.Extract(context.Background(), mustClue(t, "Capital of France [5]"), resources(france.String()), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected one candidate, got %+v", got)
	}
	if got[0].Text != "Paris" || got[0].Resource != paris.String() {
		t.Errorf("Expected Paris from %s, got %+v", paris, got[0])
	}
}

func TestExtract_UnmatchedPredicateLabel(t *testing.T) {
	client := sparqltest.New().OnConstruct(sparqltest.Rule{
		Graph: graph.FromTriples([]rdf.Triple{
			{Subj: france, Pred: hasCapital, Obj: graph.Literal("Paris", "en")},
		}),
	})

	x := New(client, graph.BindSchema(popSchema()), "en")
	got, _ := x.Extract(context.Background(), mustClue(t, "Largest city in France [5]"), resources(france.String()), nil)
	if len(got) != 0 {
		t.Errorf("Expected no candidates when the predicate label is not a fragment, got %+v", got)
	}
}

func TestExtract_VisitedOnce(t *testing.T) {
	italy := graph.MustIRI(vocab.DBR + "Italy")
	shared := graph.MustIRI(vocab.DBR + "Shared_City")
	client := sparqltest.New().
		OnConstruct(sparqltest.Rule{
			Match: []string{"<" + france.String() + "> ?predicate ?object"},
			Graph: graph.FromTriples([]rdf.Triple{
				{Subj: france, Pred: hasCapital, Obj: shared},
				{Subj: shared, Pred: graph.LabelIRI, Obj: graph.Literal("Rome", "en")},
			}),
		}).
		OnConstruct(sparqltest.Rule{
			Match: []string{"<" + italy.String() + "> ?predicate ?object"},
			Graph: graph.FromTriples([]rdf.Triple{
				{Subj: italy, Pred: hasCapital, Obj: shared},
				{Subj: shared, Pred: graph.LabelIRI, Obj: graph.Literal("Roma", "en")},
			}),
		})

	x := New(client, graph.BindSchema(popSchema()), "en")
	got, err := x.Extract(context.Background(), mustClue(t, "Capital of Italy [4]"), resources(france.String(), italy.String()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "Rome" {
		t.Errorf("Expected shared node to be expanded only once, got %+v", got)
	}
}

func TestExtract_PartialFailure(t *testing.T) {
	client := sparqltest.New().
		OnConstruct(sparqltest.Rule{Match: []string{"?subject ?predicate"}, Err: errors.New("503")}).
		OnConstruct(sparqltest.Rule{
			Graph: graph.FromTriples([]rdf.Triple{
				{Subj: france, Pred: hasCapital, Obj: graph.Literal("Paris", "")},
			}),
		})

	x := New(client, graph.BindSchema(popSchema()), "en")
	got, err := x.Extract(context.Background(), mustClue(t, "Capital of France [5]"), resources(france.String()), nil)
	if err != nil {
		t.Fatalf("Expected a single failed fetch to be absorbed, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected the successful fetch to yield a candidate, got %+v", got)
	}
}

func TestExtract_TotalFailure(t *testing.T) {
	client := sparqltest.New().OnConstruct(sparqltest.Rule{Err: errors.New("connection refused")})

	x := New(client, graph.BindSchema(popSchema()), "en")
	_, err := x.Extract(context.Background(), mustClue(t, "Capital of France [5]"), resources(france.String()), nil)
	if !errors.Is(err, ErrNothingFetched) {
		t.Errorf("Expected ErrNothingFetched, got %v", err)
	}
}

func TestQuery_EscapesAndDirections(t *testing.T) {
	x := New(nil, graph.BindSchema(nil), "en")

	q, err := x.Query(france.String(), true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(q, "CONSTRUCT { <"+france.String()+"> ?predicate ?object") {
		t.Errorf("Unexpected subject query:\n%s", q)
	}

	q, err = x.Query(france.String(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(q, "?subject ?predicate <"+france.String()+">") {
		t.Errorf("Unexpected object query:\n%s", q)
	}

	if _, err := x.Query("http://dbpedia.org/resource/Bad>IRI", true); err == nil {
		t.Error("Expected invalid IRI to be rejected")
	}
}
